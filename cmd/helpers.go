package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jthornhill/popframe/internal/config"
	"github.com/jthornhill/popframe/internal/content"
	"github.com/jthornhill/popframe/internal/errlog"
	"github.com/jthornhill/popframe/internal/notify"
	"github.com/jthornhill/popframe/internal/snapshot"
	"github.com/jthornhill/popframe/internal/transclude"
)

// buildLoader assembles the content subsystem from configuration: site,
// registry, cache, hub, and loader with its optional snapshot store and
// failure reporter.
func buildLoader(cfg *config.Config) (*content.Loader, *notify.Hub, error) {
	base, err := cfg.SiteBaseURL()
	if err != nil {
		return nil, nil, err
	}

	site := content.NewSite(base)
	if cfg.Mirrors.NitterHost != "" {
		site.NitterHost = cfg.Mirrors.NitterHost
	}

	hub := notify.NewHub()

	opts := []content.LoaderOption{
		content.WithUserAgent(cfg.HTTP.UserAgent),
		content.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		}),
	}
	if cfg.Snapshot.Enabled {
		opts = append(opts, content.WithSnapshots(snapshot.NewStore(cfg.Snapshot.Dir)))
	}
	if cfg.Errlog.Endpoint != "" {
		opts = append(opts, content.WithReporter(errlog.NewHTTPReporter(cfg.Errlog.Endpoint)))
	}

	loader := content.NewLoader(content.DefaultRegistry(site), content.NewCache(), hub, opts...)
	return loader, hub, nil
}

func buildResolver(cfg *config.Config, loader *content.Loader, hub *notify.Hub) *transclude.Resolver {
	return transclude.NewResolver(loader, hub,
		transclude.WithMaxDepth(cfg.Transclude.MaxDepth))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
