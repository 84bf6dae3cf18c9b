package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheBase_XDGSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	got := cacheBase()
	want := filepath.Join("/custom/cache", "popframe")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_HomeDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	got := cacheBase()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	want := filepath.Join(home, ".cache", "popframe")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_TmpFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")
	got := cacheBase()
	if !strings.Contains(got, "popframe") {
		t.Errorf("expected popframe in path, got %q", got)
	}
}

func TestValidate_RequiresSiteBase(t *testing.T) {
	t.Parallel()

	c := &Config{HTTP: HTTPConfig{TimeoutSeconds: 30}}
	if err := c.Validate(); err == nil {
		t.Error("expected validation error for empty site_base")
	}

	c.SiteBase = "https://example.org"
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidate_RejectsNonPositiveTimeout(t *testing.T) {
	t.Parallel()

	c := &Config{SiteBase: "https://example.org", HTTP: HTTPConfig{TimeoutSeconds: 0}}
	if err := c.Validate(); err == nil {
		t.Error("expected validation error for zero timeout")
	}
}

func TestSiteBaseURL(t *testing.T) {
	t.Parallel()

	c := &Config{SiteBase: "https://example.org"}
	u, err := c.SiteBaseURL()
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "example.org" {
		t.Errorf("host = %q", u.Host)
	}
}

func TestSiteBaseURL_Relative(t *testing.T) {
	t.Parallel()

	c := &Config{SiteBase: "/just-a-path"}
	if _, err := c.SiteBaseURL(); err == nil {
		t.Error("expected error for non-absolute site_base")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("POPFRAME_SITE_BASE", "https://example.org")
	t.Setenv("POPFRAME_MIRRORS_NITTER_HOST", "nitter.example.net")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SiteBase != "https://example.org" {
		t.Errorf("site_base = %q", cfg.SiteBase)
	}
	if cfg.Mirrors.NitterHost != "nitter.example.net" {
		t.Errorf("nitter_host = %q", cfg.Mirrors.NitterHost)
	}
	if cfg.HTTP.TimeoutSeconds != 30 {
		t.Errorf("timeout default = %d, want 30", cfg.HTTP.TimeoutSeconds)
	}
	if cfg.Transclude.MaxDepth != 8 {
		t.Errorf("max_depth default = %d, want 8", cfg.Transclude.MaxDepth)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	toml := `site_base = "https://example.org"

[server]
listen_addr = "127.0.0.1:9000"

[snapshot]
enabled = false
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Snapshot.Enabled {
		t.Error("snapshot.enabled should be overridden to false")
	}
}
