package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/common/messaging"
	"github.com/amesa-systems/amesa-notify/common/middleware"
	"github.com/amesa-systems/amesa-notify/common/tokens"
	"github.com/amesa-systems/amesa-notify/notify/internal/authclient"
	"github.com/amesa-systems/amesa-notify/notify/internal/bulk"
	"github.com/amesa-systems/amesa-notify/notify/internal/config"
	"github.com/amesa-systems/amesa-notify/notify/internal/dlq"
	"github.com/amesa-systems/amesa-notify/notify/internal/emailclient"
	"github.com/amesa-systems/amesa-notify/notify/internal/gate"
	"github.com/amesa-systems/amesa-notify/notify/internal/handlers"
	"github.com/amesa-systems/amesa-notify/notify/internal/ledger"
	"github.com/amesa-systems/amesa-notify/notify/internal/lotteryclient"
	"github.com/amesa-systems/amesa-notify/notify/internal/notifiers"
	"github.com/amesa-systems/amesa-notify/notify/internal/orchestrator"
	"github.com/amesa-systems/amesa-notify/notify/internal/ratelimit"
	"github.com/amesa-systems/amesa-notify/notify/internal/router"
	"github.com/amesa-systems/amesa-notify/notify/internal/server"
	"github.com/amesa-systems/amesa-notify/notify/internal/service"
	"github.com/amesa-systems/amesa-notify/notify/internal/store"
	"github.com/amesa-systems/amesa-notify/notify/internal/validator"

	natsclient "github.com/amesa-systems/amesa-notify/common/messaging/nats"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	loader, cfg, err := config.NewLoader(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("notify"))
	logging.SetDefault(logger)

	slog.Info("Starting Notify service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if file := loader.ConfigFile(); file != "" {
		slog.Info("Loaded configuration", slog.String("config_path", file))
	}
	slog.Info("Service URLs configured",
		slog.String("orchestrator_url", cfg.Orchestrator.URL),
		slog.String("lottery_url", cfg.Lottery.URL),
		slog.String("auth_url", cfg.AuthService.URL),
		slog.String("email_url", cfg.Email.URL),
	)

	// Idempotency store
	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	redisClient, err := store.Connect(startCtx, cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	kv := store.NewRedisStore(redisClient)
	idempotency := gate.New(kv, cfg.Webhook.MaxRetries, cfg.Webhook.IdempotencyTTL, logger)

	// Rate limiter
	var limiter ratelimit.RateLimiter = &ratelimit.NoOpRateLimiter{}
	var budget *ratelimit.Budget
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewRedisRateLimiter(redisClient)
		budget = ratelimit.NewBudget(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		slog.Info("Rate limiting enabled",
			slog.Int("requests", cfg.RateLimit.Requests),
			slog.Duration("window", cfg.RateLimit.Window))
	} else {
		slog.Info("Rate limiting disabled in configuration")
	}
	defer limiter.Close()

	sources := validator.NewSourceAllowList(cfg.Webhook.AllowedSources)
	checks := map[string]handlers.Pinger{"redis": kv}

	// NATS is shared by the JetStream DLQ and the NATS orchestrator transport
	var js *natsclient.JetStreamClient
	needNATS := cfg.Orchestrator.Transport == "nats" || (cfg.DLQ.Enabled && cfg.DLQ.Backend == "jetstream")
	if needNATS {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		if cfg.DLQ.Backend == "jetstream" && cfg.DLQ.NatsURL != "" {
			natsCfg.URL = cfg.DLQ.NatsURL
		}
		js, err = natsclient.NewJetStreamClient(natsCfg)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer js.Drain()
		checks["nats"] = natsPinger{client: js.Client}
	}

	// Dead Letter Queue
	var dlqStore dlq.Store
	if cfg.DLQ.Enabled {
		switch cfg.DLQ.Backend {
		case "jetstream":
			jsDLQ, err := dlq.NewJetStreamQueue(startCtx, js, logger)
			if err != nil {
				log.Fatalf("Failed to initialize JetStream DLQ: %v", err)
			}
			dlqStore = jsDLQ
			slog.Info("Dead Letter Queue enabled", slog.String("backend", "jetstream"))
		case "file":
			fileDLQ, err := dlq.NewQueue(cfg.DLQ.BasePath, logger)
			if err != nil {
				log.Fatalf("Failed to initialize file DLQ: %v", err)
			}
			dlqStore = fileDLQ
			slog.Info("Dead Letter Queue enabled",
				slog.String("backend", "file"), slog.String("path", cfg.DLQ.BasePath))
			slog.Warn("File-based DLQ does not support multiple notify instances")
		}
	} else {
		slog.Info("Dead Letter Queue disabled")
	}

	// Event-outcome ledger
	var outcomes ledger.Ledger = ledger.Noop{}
	ledgerBackend := "none"
	if cfg.Ledger.Enabled {
		ledgerBackend = cfg.Ledger.Backend
		switch cfg.Ledger.Backend {
		case "postgres":
			connString := cfg.Ledger.Postgres.ConnectionString()
			if err := ledger.Migrate(cfg.Ledger.Postgres.MigrationsDir, connString); err != nil {
				log.Fatalf("Failed to run ledger migrations: %v", err)
			}
			pg, err := ledger.NewPostgres(startCtx, connString)
			if err != nil {
				log.Fatalf("Failed to connect to ledger database: %v", err)
			}
			outcomes = pg
			checks["postgres"] = pg
		case "opensearch":
			osLedger, err := ledger.NewOpenSearch(startCtx, cfg.Ledger.OpenSearch)
			if err != nil {
				log.Fatalf("Failed to initialize OpenSearch ledger: %v", err)
			}
			outcomes = osLedger
		}
		slog.Info("Event-outcome ledger enabled", slog.String("backend", ledgerBackend))
	}
	defer outcomes.Close()
	startCancel()

	// Outbound collaborators
	var orch orchestrator.Orchestrator
	switch cfg.Orchestrator.Transport {
	case "nats":
		orch = orchestrator.NewNATSClient(js, cfg.Orchestrator.Timeout)
	default:
		orch = orchestrator.NewHTTPClient(cfg.Orchestrator.URL, cfg.ServiceAuth.APIKey, cfg.Orchestrator.Timeout)
	}
	slog.Info("Channel orchestrator configured", slog.String("transport", cfg.Orchestrator.Transport))

	scope := &notifiers.Scope{
		Email:        emailclient.New(cfg.Email.URL, cfg.ServiceAuth.APIKey, cfg.Email.From, cfg.Email.Timeout),
		Orchestrator: orch,
		Lottery:      lotteryclient.New(cfg.Lottery.URL, cfg.ServiceAuth.APIKey, cfg.Lottery.Timeout),
		Auth:         authclient.New(cfg.AuthService.URL, cfg.ServiceAuth.APIKey, cfg.AuthService.Timeout),
		Bulk:         bulk.New(cfg.Bulk, logger),
		Logger:       logger,
	}

	// Static routing table
	eventRouter := router.New(logger)
	notifiers.RegisterAll(eventRouter, scope)
	slog.Info("Event router initialized", logging.Count(len(eventRouter.Types())))

	pipeline := service.New(service.Config{
		Validator:         validator.New(sources),
		Limiter:           limiter,
		Budget:            budget,
		Gate:              idempotency,
		Router:            eventRouter,
		DLQ:               dlqStore,
		Ledger:            outcomes,
		LedgerBackend:     ledgerBackend,
		ProcessingTimeout: cfg.Webhook.ProcessingTimeout,
		Logger:            logger,
	})

	// Hot reload of the allow-list and rate-limit budget
	loader.Watch(config.Reloadable{Sources: sources, Budget: budget, Logger: logger}.Apply)

	// Optional bearer tokens on webhook and admin routes
	var tokenValidator middleware.TokenValidator
	if cfg.Security.JWTSecret != "" {
		tg, err := tokens.NewTokenGenerator(cfg.Security.JWTSecret)
		if err != nil {
			log.Fatalf("Failed to initialize token validator: %v", err)
		}
		tokenValidator = tg
		slog.Info("Service token authentication enabled")
	} else {
		slog.Warn("Service token authentication disabled; webhook and admin routes are open")
	}

	var reader ledger.Reader = outcomes
	h := server.Handlers{
		Webhook: handlers.NewWebhookHandler(pipeline, cfg.Webhook.MaxBodyBytes, logger),
		Admin:   handlers.NewAdminHandler(idempotency, dlqStore, reader, logger),
		Health:  handlers.NewHealthHandler(checks),
	}
	httpHandler := server.NewRouter(h, tokenValidator)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("Notify service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	slog.Info("Server stopped")
}

// natsPinger adapts the broker health check to readiness.
type natsPinger struct {
	client messaging.Client
}

func (p natsPinger) Ping(ctx context.Context) error {
	status := messaging.CheckClientHealth(ctx, p.client)
	if !status.Connected {
		return errors.New(status.Error)
	}
	return nil
}
