package config

import (
	"log/slog"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
	"github.com/amesa-systems/amesa-notify/notify/internal/ratelimit"
	"github.com/amesa-systems/amesa-notify/notify/internal/validator"
)

// Reloadable holds the live values that change without a restart.
type Reloadable struct {
	Sources *validator.SourceAllowList
	Budget  *ratelimit.Budget
	Logger  *logging.Logger
}

// Apply swaps the allow-list and rate-limit budget to the values in cfg.
// Everything else in cfg is ignored until restart.
func (r Reloadable) Apply(cfg *Config, err error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if err != nil {
		logger.Error("config reload rejected, keeping previous values", logging.Error(err))
		return
	}

	if r.Sources != nil && len(cfg.Webhook.AllowedSources) > 0 {
		r.Sources.Set(cfg.Webhook.AllowedSources)
	}
	if r.Budget != nil && cfg.RateLimit.Enabled {
		r.Budget.Set(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	metrics.ConfigReloads.Inc()

	limit, window := 0, cfg.RateLimit.Window
	if r.Budget != nil {
		limit, window = r.Budget.Get()
	}
	logger.Info("configuration reloaded",
		slog.Any("allowed_sources", cfg.Webhook.AllowedSources),
		slog.Int("rate_limit_requests", limit),
		slog.Duration("rate_limit_window", window),
	)
}
