package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/ratelimit"
	"github.com/amesa-systems/amesa-notify/notify/internal/validator"
)

func TestLoad_WithDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8095, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, []string{"amesa.auth", "amesa.lottery", "amesa.payment", "amesa.content", "amesa.notification-service"}, cfg.Webhook.AllowedSources)
	assert.Equal(t, 3, cfg.Webhook.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.Webhook.IdempotencyTTL)
	assert.Equal(t, 25*time.Second, cfg.Webhook.ProcessingTimeout)
	assert.Equal(t, int64(1048576), cfg.Webhook.MaxBodyBytes)

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)

	assert.Equal(t, 10000, cfg.Bulk.MaxItems)
	assert.Equal(t, 100, cfg.Bulk.BatchSize)
	assert.Equal(t, 10, cfg.Bulk.MaxConcurrency)
	assert.Equal(t, 10*time.Second, cfg.Bulk.ItemTimeout)

	assert.Equal(t, "http", cfg.Orchestrator.Transport)
	assert.Equal(t, "file", cfg.DLQ.Backend)
	assert.Equal(t, "./data/dlq", cfg.DLQ.BasePath)
	assert.False(t, cfg.Ledger.Enabled)
	assert.Equal(t, "amesa-notify", cfg.Ledger.OpenSearch.IndexPrefix)
	assert.Equal(t, "postgres://notify:@localhost:5432/notify?sslmode=disable", cfg.Ledger.Postgres.ConnectionString())
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
webhook:
  allowed_sources: [amesa.auth]
  max_retries: 5
rate_limit:
  requests: 10
  window: 30s
orchestrator:
  transport: nats
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"amesa.auth"}, cfg.Webhook.AllowedSources)
	assert.Equal(t, 5, cfg.Webhook.MaxRetries)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "nats", cfg.Orchestrator.Transport)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NOTIFY_SERVER_PORT", "9100")
	t.Setenv("NOTIFY_WEBHOOK_ALLOWED_SOURCES", "amesa.auth, amesa.payment")
	t.Setenv("NOTIFY_RATE_LIMIT_REQUESTS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"amesa.auth", "amesa.payment"}, cfg.Webhook.AllowedSources)
	assert.Equal(t, 7, cfg.RateLimit.Requests)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "token required without secret", mutate: func(c *Config) { c.Security.RequireToken = true }, wantErr: true},
		{name: "token required with secret", mutate: func(c *Config) {
			c.Security.RequireToken = true
			c.Security.JWTSecret = "s3cret"
		}},
		{name: "bad transport", mutate: func(c *Config) { c.Orchestrator.Transport = "grpc" }, wantErr: true},
		{name: "bad dlq backend", mutate: func(c *Config) { c.DLQ.Backend = "s3" }, wantErr: true},
		{name: "disabled dlq ignores backend", mutate: func(c *Config) {
			c.DLQ.Enabled = false
			c.DLQ.Backend = "s3"
		}},
		{name: "bad ledger backend", mutate: func(c *Config) {
			c.Ledger.Enabled = true
			c.Ledger.Backend = "mysql"
		}, wantErr: true},
		{name: "zero retries", mutate: func(c *Config) { c.Webhook.MaxRetries = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestReloadable_Apply(t *testing.T) {
	sources := validator.NewSourceAllowList([]string{"amesa.auth"})
	budget := ratelimit.NewBudget(100, time.Minute)
	r := Reloadable{Sources: sources, Budget: budget, Logger: logging.Discard()}

	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Webhook.AllowedSources = []string{"amesa.lottery", "amesa.partner"}
	cfg.RateLimit.Requests = 5
	cfg.RateLimit.Window = 10 * time.Second

	r.Apply(cfg, nil)
	assert.True(t, sources.Allowed("AMESA.PARTNER"))
	assert.False(t, sources.Allowed("amesa.auth"))
	limit, window := budget.Get()
	assert.Equal(t, 5, limit)
	assert.Equal(t, 10*time.Second, window)

	// A rejected reload keeps the previous values.
	r.Apply(nil, assert.AnError)
	assert.True(t, sources.Allowed("amesa.lottery"))
}

func TestLoader_WatchPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate_limit:\n  requests: 10\n"), 0o644))

	loader, cfg, err := NewLoader(path)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, path, loader.ConfigFile())

	changes := make(chan *Config, 4)
	loader.Watch(func(cfg *Config, err error) {
		if err != nil {
			return
		}
		select {
		case changes <- cfg:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("rate_limit:\n  requests: 20\n"), 0o644))

	// The write may surface as more than one event; wait for the final content.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case updated := <-changes:
			if updated.RateLimit.Requests == 20 {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}
