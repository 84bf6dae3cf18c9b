// Package config loads popframe configuration from TOML files and the
// environment and resolves the cache directory layout.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

type SnapshotConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type ErrlogConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	DBPath   string `mapstructure:"db_path"`
}

type MirrorConfig struct {
	NitterHost string `mapstructure:"nitter_host"`
}

type TranscludeConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

type Config struct {
	SiteBase   string           `mapstructure:"site_base"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Server     ServerConfig     `mapstructure:"server"`
	Snapshot   SnapshotConfig   `mapstructure:"snapshot"`
	Errlog     ErrlogConfig     `mapstructure:"errlog"`
	Mirrors    MirrorConfig     `mapstructure:"mirrors"`
	Transclude TranscludeConfig `mapstructure:"transclude"`
}

// Validate checks the fields that have no workable default.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SiteBase, validation.Required, is.URL),
		validation.Field(&c.HTTP, validation.By(func(any) error {
			if c.HTTP.TimeoutSeconds <= 0 {
				return fmt.Errorf("http.timeout_seconds must be positive")
			}
			return nil
		})),
	)
}

// SiteBaseURL parses the configured site origin.
func (c *Config) SiteBaseURL() (*url.URL, error) {
	u, err := url.Parse(c.SiteBase)
	if err != nil {
		return nil, fmt.Errorf("parsing site_base: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("site_base %q must be an absolute URL", c.SiteBase)
	}
	return u, nil
}

// cacheBase returns the base cache directory for popframe.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/popframe as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "popframe")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "popframe")
	}
	return filepath.Join(os.TempDir(), "popframe")
}

// SnapshotDir returns the snapshot archive directory.
func SnapshotDir() string {
	return filepath.Join(cacheBase(), "snapshots")
}

// ErrlogDBPath returns the path of the failure-report database.
func ErrlogDBPath() string {
	return filepath.Join(cacheBase(), "errlog.db")
}

func initializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "popframe"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "popframe"))
	}

	// Keys without a usable default still need registering so environment
	// overrides surface through AllSettings.
	viper.SetDefault("site_base", "")
	viper.SetDefault("errlog.endpoint", "")

	viper.SetDefault("http.user_agent", "popframe/0.1.0")
	viper.SetDefault("http.timeout_seconds", 30)
	viper.SetDefault("server.listen_addr", "127.0.0.1:8097")
	viper.SetDefault("snapshot.enabled", true)
	viper.SetDefault("snapshot.dir", SnapshotDir())
	viper.SetDefault("errlog.db_path", ErrlogDBPath())
	viper.SetDefault("mirrors.nitter_host", "nitter.net")
	viper.SetDefault("transclude.max_depth", 8)

	viper.SetEnvPrefix("POPFRAME")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	if err := initializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
