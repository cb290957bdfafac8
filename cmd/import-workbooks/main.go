package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	migrationapp "github.com/erp/migrator/internal/application/migration"
	"github.com/erp/migrator/internal/domain/partner"
	"github.com/erp/migrator/internal/domain/sheetdate"
	"github.com/erp/migrator/internal/infrastructure/bootstrap"
	"github.com/erp/migrator/internal/infrastructure/config"
	"github.com/erp/migrator/internal/infrastructure/logger"
	"github.com/erp/migrator/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := bootstrap.NewLogger("import-workbooks", cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Import failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	env, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer env.Close(ctx)
	log = env.Logger

	if err := env.Lock(ctx); err != nil {
		return err
	}
	if err := env.PrepareSchema(ctx); err != nil {
		return fmt.Errorf("prepare schema: %w", err)
	}

	normalizer, err := sheetdate.New(cfg.Source.Location)
	if err != nil {
		return err
	}
	purchases, err := env.OpenWorkbook(ctx, cfg.Source.PurchasesWorkbook)
	if err != nil {
		return err
	}
	defer purchases.Close()
	sales, err := env.OpenWorkbook(ctx, cfg.Source.SalesWorkbook)
	if err != nil {
		return err
	}
	defer sales.Close()

	src, err := migrationapp.LoadSource(purchases, sales, migrationapp.SheetNamesFromConfig(cfg.Source), normalizer, cfg.Source.MaxRowErrors)
	if err != nil {
		return fmt.Errorf("read workbooks: %w", err)
	}

	metrics, err := telemetry.NewRunMetrics(env.Meters.Meter("github.com/erp/migrator"))
	if err != nil {
		return err
	}
	orch := migrationapp.NewOrchestrator(migrationapp.StoreRepositories(env.Store), migrationapp.Options{
		FlagLimit: cfg.Source.FlagLimit,
		Placeholders: partner.PlaceholderPolicy{
			EmailDomain: cfg.Source.PlaceholderEmail,
			Phone:       cfg.Source.PlaceholderPhone,
		},
		DefaultCurrency:  cfg.Source.DefaultCurrency,
		DefaultBranch:    cfg.Source.DefaultBranch,
		DefaultWarehouse: cfg.Source.DefaultWarehouse,
	}, log, migrationapp.WithMetrics(metrics))

	summary, runErr := orch.Run(ctx, src)
	if cfg.Diagnostics.SummaryPath != "" && summary != nil {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err == nil {
			err = env.Storage.Write(ctx, cfg.Diagnostics.SummaryPath, data, "application/json")
		}
		if err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("write summary: %w", err))
		}
	}
	return runErr
}
