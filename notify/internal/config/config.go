package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/amesa-systems/amesa-notify/notify/internal/bulk"
	"github.com/amesa-systems/amesa-notify/notify/internal/dlq"
	"github.com/amesa-systems/amesa-notify/notify/internal/ledger"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Webhook      WebhookConfig      `mapstructure:"webhook"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Bulk         bulk.Options       `mapstructure:"bulk"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Lottery      UpstreamConfig     `mapstructure:"lottery"`
	AuthService  UpstreamConfig     `mapstructure:"auth_service"`
	Email        EmailConfig        `mapstructure:"email"`
	ServiceAuth  ServiceAuthConfig  `mapstructure:"service_auth"`
	Security     SecurityConfig     `mapstructure:"security"`
	DLQ          DLQConfig          `mapstructure:"dlq"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	NATS         NATSConfig         `mapstructure:"nats"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type WebhookConfig struct {
	AllowedSources    []string      `mapstructure:"allowed_sources"`
	MaxRetries        int           `mapstructure:"max_retries"`
	IdempotencyTTL    time.Duration `mapstructure:"idempotency_ttl"`
	ProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type OrchestratorConfig struct {
	// Transport is "http" or "nats".
	Transport string        `mapstructure:"transport"`
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type UpstreamConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	From    string        `mapstructure:"from"`
}

type ServiceAuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type SecurityConfig struct {
	JWTSecret    string `mapstructure:"jwt_secret"`
	RequireToken bool   `mapstructure:"require_token"`
}

type DLQConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend is "jetstream" or "file".
	Backend  string `mapstructure:"backend"`
	NatsURL  string `mapstructure:"nats_url"`
	BasePath string `mapstructure:"base_path"`
}

type LedgerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Backend is "postgres" or "opensearch".
	Backend    string                  `mapstructure:"backend"`
	Postgres   PostgresConfig          `mapstructure:"postgres"`
	OpenSearch ledger.OpenSearchConfig `mapstructure:"opensearch"`
}

type PostgresConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	SSLMode       string `mapstructure:"sslmode"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// ConnectionString returns a postgres:// URL usable by both pgx and migrate.
func (p PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// Loader keeps the viper instance around so the file can be watched after
// the initial load.
type Loader struct {
	v *viper.Viper
}

func Load(configPath string) (*Config, error) {
	_, cfg, err := NewLoader(configPath)
	return cfg, err
}

// NewLoader reads configuration from defaults, the optional file and
// NOTIFY_* environment variables.
func NewLoader(configPath string) (*Loader, *Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/amesa/notify")
	}

	// Environment variables override
	v.SetEnvPrefix("NOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	l := &Loader{v: v}
	cfg, err := l.decode()
	if err != nil {
		return nil, nil, err
	}
	return l, cfg, nil
}

// ConfigFile returns the file in use, or "" when running on defaults.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch re-decodes the file on every change and passes the result to fn.
// Decode failures are passed as err with a nil config.
func (l *Loader) Watch(fn func(cfg *Config, err error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		fn(cfg, err)
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Webhook.AllowedSources = splitList(cfg.Webhook.AllowedSources)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	if c.Security.RequireToken && c.Security.JWTSecret == "" {
		return errors.New("security.require_token is set but security.jwt_secret is empty")
	}
	switch c.Orchestrator.Transport {
	case "http", "nats":
	default:
		return fmt.Errorf("unknown orchestrator transport %q (supported: http, nats)", c.Orchestrator.Transport)
	}
	if c.DLQ.Enabled {
		switch c.DLQ.Backend {
		case "jetstream", "file":
		default:
			return fmt.Errorf("unknown dlq backend %q (supported: jetstream, file)", c.DLQ.Backend)
		}
	}
	if c.Ledger.Enabled {
		switch c.Ledger.Backend {
		case "postgres", "opensearch":
		default:
			return fmt.Errorf("unknown ledger backend %q (supported: postgres, opensearch)", c.Ledger.Backend)
		}
	}
	if c.Webhook.MaxRetries <= 0 {
		return errors.New("webhook.max_retries must be positive")
	}
	return nil
}

// splitList accepts both YAML lists and a comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8095)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("redis.url", "redis://localhost:6379/0")

	v.SetDefault("webhook.allowed_sources", []string{
		"amesa.auth", "amesa.lottery", "amesa.payment", "amesa.content", "amesa.notification-service",
	})
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.idempotency_ttl", "24h")
	v.SetDefault("webhook.processing_timeout", "25s")
	v.SetDefault("webhook.max_body_bytes", 1048576)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("bulk.max_items", 10000)
	v.SetDefault("bulk.batch_size", 100)
	v.SetDefault("bulk.max_concurrency", 10)
	v.SetDefault("bulk.item_timeout", "10s")

	v.SetDefault("orchestrator.transport", "http")
	v.SetDefault("orchestrator.url", "http://localhost:8096")
	v.SetDefault("orchestrator.timeout", "10s")

	v.SetDefault("lottery.url", "http://localhost:8082")
	v.SetDefault("lottery.timeout", "10s")
	v.SetDefault("auth_service.url", "http://localhost:8081")
	v.SetDefault("auth_service.timeout", "10s")
	v.SetDefault("email.url", "http://localhost:8097")
	v.SetDefault("email.timeout", "10s")
	v.SetDefault("email.from", "noreply@amesa.com")

	v.SetDefault("service_auth.api_key", "")
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.require_token", false)

	v.SetDefault("dlq.enabled", true)
	v.SetDefault("dlq.backend", "file")
	v.SetDefault("dlq.nats_url", "nats://localhost:4222")
	v.SetDefault("dlq.base_path", dlq.DefaultBasePath)

	v.SetDefault("ledger.enabled", false)
	v.SetDefault("ledger.backend", "postgres")
	v.SetDefault("ledger.postgres.host", "localhost")
	v.SetDefault("ledger.postgres.port", 5432)
	v.SetDefault("ledger.postgres.user", "notify")
	v.SetDefault("ledger.postgres.password", "")
	v.SetDefault("ledger.postgres.database", "notify")
	v.SetDefault("ledger.postgres.sslmode", "disable")
	v.SetDefault("ledger.postgres.migrations_dir", "file://notify/migrations")
	v.SetDefault("ledger.opensearch.url", "https://localhost:9200")
	v.SetDefault("ledger.opensearch.username", "admin")
	v.SetDefault("ledger.opensearch.password", "")
	v.SetDefault("ledger.opensearch.tls_skip_verify", true)
	v.SetDefault("ledger.opensearch.index_prefix", "amesa-notify")

	v.SetDefault("nats.url", "nats://localhost:4222")
}
