package main

import (
	"fmt"

	"hijrical/internal/calendar"
	"hijrical/internal/config"
	"hijrical/internal/fetch"
	appLog "hijrical/internal/log"
	"hijrical/internal/metrics"
	"hijrical/internal/provider"
	"hijrical/internal/store"
)

// app is the wired set of collaborators built from a config.
type app struct {
	cfg       *config.Config
	metrics   *metrics.Metrics
	pages     fetch.Getter
	documents fetch.Getter
	overrides *store.Overrides
	reminders *store.Reminders
	service   *calendar.Service
}

// newGetters returns the getter for HTML pages and the one for PDFs and
// feeds. Browser mode renders pages in Chromium only; documents always go
// over plain HTTP.
func newGetters(cfg *config.Config, m *metrics.Metrics) (pages, documents fetch.Getter) {
	documents = fetch.NewHTTP(fetch.Options{
		CacheDir:          cfg.Fetch.CacheDir,
		Timeout:           cfg.Fetch.Timeout(),
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		UserAgent:         cfg.Fetch.UserAgent,
		Metrics:           m,
	})
	if cfg.Fetch.Mode == "browser" {
		return fetch.Browser{Timeout: max(cfg.Fetch.Timeout(), fetch.DefaultBrowserTimeout)}, documents
	}
	return documents, documents
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}
	a.pages, a.documents = newGetters(cfg, a.metrics)
	loc := cfg.Location()

	var err error
	a.overrides, err = store.OpenOverrides(cfg.Manual.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open override store: %w", err)
	}
	a.reminders, err = store.OpenReminders(cfg.Reminders.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open reminder store: %w", err)
	}

	calc := provider.NewCalculated(cfg.Calculated.URL, a.pages, loc)
	calc.Documents = a.documents
	calc.PDFFallback = cfg.Calculated.PDFFallbackEnabled()

	opts := []calendar.Option{
		calendar.WithLocation(loc),
		calendar.WithMetrics(a.metrics),
		calendar.WithMinInterval(cfg.MinRefreshInterval()),
	}
	if cfg.Moonsighting.Enabled {
		ms := provider.NewMoonsighting(cfg.Moonsighting.SiteURL, a.pages, loc)
		ms.Documents = a.documents
		ms.MaxPosts = cfg.Moonsighting.MaxPosts
		opts = append(opts, calendar.WithMoonsighting(ms))
	}
	if cfg.Authority.Enabled {
		opts = append(opts, calendar.WithAuthority(&provider.Authority{
			FeedURL:  cfg.Authority.FeedURL,
			Getter:   a.documents,
			Location: loc,
		}))
	}
	if cfg.Manual.Enabled {
		opts = append(opts, calendar.WithManual(a.overrides))
	}
	a.service = calendar.New(calc, opts...)

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"refresh", cfg.RefreshCron,
		"min_refresh_minutes", cfg.MinRefreshMinutes,
		"fetch_mode", cfg.Fetch.Mode,
		"moonsighting", cfg.Moonsighting.Enabled,
		"authority", cfg.Authority.Enabled,
		"manual", cfg.Manual.Enabled,
	)
	return a, nil
}
