// Command recon_scan runs a suggestion pass for every account of a workplace that has
// feed transactions in the period, then runs transfer detection over the same month.
// It is meant to be scheduled from cron and acts as the system user.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/SscSPs/bank_reconciliation/internal/apperrors"
	"github.com/SscSPs/bank_reconciliation/internal/core/domain"
	portsrepo "github.com/SscSPs/bank_reconciliation/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/bank_reconciliation/internal/core/ports/services"
	"github.com/SscSPs/bank_reconciliation/internal/core/services"
	"github.com/SscSPs/bank_reconciliation/internal/middleware"
	"github.com/SscSPs/bank_reconciliation/internal/platform/config"
	"github.com/SscSPs/bank_reconciliation/internal/platform/events"
	"github.com/SscSPs/bank_reconciliation/internal/platform/logging"
	"github.com/SscSPs/bank_reconciliation/internal/repositories/database/pgsql"
	"github.com/SscSPs/bank_reconciliation/pkg/database"
)

func main() {
	workplaceID := flag.String("workplace", "", "workplace to scan (required)")
	periodFlag := flag.String("period", "", "period to scan as YYYY-MM (defaults to the previous month)")
	detect := flag.Bool("detect-transfers", true, "run transfer detection after the suggestion passes")
	migrate := flag.Bool("migrate", false, "apply pending migrations before scanning")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.InitLogger(logging.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if *workplaceID == "" {
		logger.Error("The -workplace flag is required")
		os.Exit(2)
	}
	period, err := scanPeriod(*periodFlag, time.Now())
	if err != nil {
		logger.Error("Invalid -period flag", slog.String("error", err.Error()))
		os.Exit(2)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("PGSQL_URL must be set for scanning")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger = logger.With(slog.String("workplace_id", *workplaceID), slog.String("period", period.String()))
	ctx = middleware.WithLogger(ctx, logger)

	if *migrate {
		if _, err := database.RunMigrations(cfg.DatabaseURL, "file://migrations", logger); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, true)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	repos := pgsql.NewRepositoryProvider(dbPool)
	publisher := events.FanOut{events.LogPublisher{}}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = append(publisher, kafkaPublisher)
	}
	// The scanner is a trusted caller, so no workplace authorizer is wired.
	container := services.NewServiceContainer(cfg, repos,
		services.WithEventPublisher(publisher),
		services.WithWorkplaceAuthorizer(nil),
	)

	if err := run(ctx, repos.FeedRepo, container, *workplaceID, period, *detect); err != nil {
		logger.Error("Scan failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// scanPeriod parses the flag value or falls back to the month before now.
func scanPeriod(value string, now time.Time) (domain.Period, error) {
	if value != "" {
		return domain.ParsePeriod(value)
	}
	return domain.PeriodOf(now).Previous(), nil
}

func run(ctx context.Context, feeds portsrepo.FeedTransactionReader, container *portssvc.ServiceContainer, workplaceID string, period domain.Period, detect bool) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	rows, err := feeds.ListFeedTransactionsByWorkplace(ctx, workplaceID, period.Range())
	if err != nil {
		return fmt.Errorf("list feed transactions: %w", err)
	}
	accounts := accountIDs(rows)
	logger.Info("Scan started", slog.Int("accounts", len(accounts)), slog.Int("feed_transactions", len(rows)))

	var failed int
	for _, accountID := range accounts {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := container.Reconciliation.GenerateSuggestions(ctx, workplaceID, accountID, period, domain.SystemActor)
		if err != nil {
			// A locked period has nothing left to suggest.
			if errors.Is(err, apperrors.ErrPeriodLocked) {
				logger.Info("Skipping locked period", slog.String("account_id", accountID))
				continue
			}
			failed++
			logger.Error("Suggestion pass failed", slog.String("account_id", accountID), slog.String("error", err.Error()))
			continue
		}
		logger.Info("Suggestion pass finished",
			slog.String("account_id", accountID),
			slog.Int("considered", result.Considered),
			slog.Int("suggested", result.Suggested),
			slog.Int("auto_matched", result.AutoMatched),
			slog.Int("unmatched", result.Unmatched))
	}

	if detect {
		transfers, err := container.Transfer.DetectTransfers(ctx, workplaceID, period.Range(), domain.SystemActor)
		if err != nil {
			return fmt.Errorf("detect transfers: %w", err)
		}
		logger.Info("Transfer detection finished", slog.Int("detected", len(transfers)))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d suggestion passes failed", failed, len(accounts))
	}
	return nil
}

func accountIDs(rows []domain.BankFeedTransaction) []string {
	seen := map[string]bool{}
	var ids []string
	for _, r := range rows {
		if !seen[r.AccountID] {
			seen[r.AccountID] = true
			ids = append(ids, r.AccountID)
		}
	}
	sort.Strings(ids)
	return ids
}
