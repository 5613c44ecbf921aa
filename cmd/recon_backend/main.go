package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/SscSPs/bank_reconciliation/cmd/docs"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	"github.com/SscSPs/bank_reconciliation/internal/core/services"
	"github.com/SscSPs/bank_reconciliation/internal/handlers"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/SscSPs/bank_reconciliation/internal/platform/config"
	"github.com/SscSPs/bank_reconciliation/internal/platform/events"
	"github.com/SscSPs/bank_reconciliation/internal/platform/logging"
	"github.com/SscSPs/bank_reconciliation/internal/platform/metrics"
	"github.com/SscSPs/bank_reconciliation/internal/repositories/database/memory"
	"github.com/SscSPs/bank_reconciliation/internal/repositories/database/pgsql"
	"github.com/SscSPs/bank_reconciliation/internal/utils"
	"github.com/SscSPs/bank_reconciliation/pkg/database"
	"github.com/gin-gonic/gin"
)

//go:generate swag init -g cmd/recon_backend/main.go -o cmd/docs -d ../..

// @title Bank Reconciliation API
// @version 1.0
// @description Matches bank feed transactions to ledger transactions, detects inter-account transfers and locks reconciled periods.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.InitLogger(logging.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})

	repos, closeRepos, err := openRepositories(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize repositories", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepos()

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer posthogClient.Close()

	publisher := events.FanOut{events.LogPublisher{}}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if cerr := kafkaPublisher.Close(); cerr != nil {
				logger.Error("Error closing Kafka publisher", slog.String("error", cerr.Error()))
			}
		}()
		publisher = append(publisher, kafkaPublisher)
		logger.Info("Publishing reconciliation events to Kafka", slog.String("topic", cfg.KafkaTopic))
	}
	if posthogClient.IsInitialized() {
		publisher = append(publisher, events.NewAnalyticsPublisher(posthogClient))
	}

	recorder := metrics.NewRecorder()
	serviceContainer := services.NewServiceContainer(cfg, repos,
		services.WithEventPublisher(publisher),
		services.WithMetrics(recorder),
	)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer, handlers.RouteDeps{
		Metrics: recorder.Handler(),
		Posthog: posthogClient,
	}); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// openRepositories connects to Postgres and applies migrations when a database URL is
// configured. Without one the server runs on the in-memory store.
func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("No database configured, using the in-memory store. Data is lost on restart.")
		return memory.NewStore().Provider(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	applied, err := database.RunMigrations(cfg.DatabaseURL, "file://migrations", logger)
	if err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}
	if applied {
		logger.Info("Database migrations applied successfully.")
	} else {
		logger.Info("No new migrations to apply.")
	}

	return pgsql.NewRepositoryProvider(dbPool), dbPool.Close, nil
}
