package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	diagnosticsapp "github.com/erp/migrator/internal/application/diagnostics"
	"github.com/erp/migrator/internal/infrastructure/bootstrap"
	"github.com/erp/migrator/internal/infrastructure/config"
	"github.com/erp/migrator/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := bootstrap.NewLogger("diagnose", cfg.Log)
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
		log.Fatal("Diagnostics failed", zap.Error(err))
	}
}

// run only reads; it takes no run lock
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	env, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer env.Close(ctx)
	log = env.Logger

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

	ctx = logger.WithContext(ctx, log)
	rep, err := diagnosticsapp.NewReporter(env.Store.Audit, diagnosticsapp.Options{}).Build(ctx, purchases, sales)
	if err != nil {
		return err
	}
	if err := rep.WriteTables(os.Stdout); err != nil {
		return err
	}
	return rep.Save(ctx, env.Storage, cfg.Diagnostics.ReportPath)
}
