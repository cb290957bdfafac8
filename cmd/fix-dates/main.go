package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	correctionapp "github.com/erp/migrator/internal/application/correction"
	"github.com/erp/migrator/internal/domain/sheetdate"
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

	log, err := bootstrap.NewLogger("fix-dates", cfg.Log)
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
		log.Fatal("Correction failed", zap.Error(err))
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

	ctx = logger.WithContext(ctx, log)
	src, err := correctionapp.LoadDateSource(ctx, purchases, sales, cfg.Source.PurchaseSheet, cfg.Source.SaleSheet, normalizer, cfg.Source.MaxRowErrors)
	if err != nil {
		return fmt.Errorf("read workbooks: %w", err)
	}

	c := correctionapp.NewCorrector(correctionapp.Repositories{
		Purchases: env.Store.Purchases,
		Sales:     env.Store.Sales,
		Customers: env.Store.Customers,
	})
	if _, err := c.FixDates(ctx, src); err != nil {
		return err
	}
	markers, err := c.ApplyMarkers(ctx)
	if err != nil {
		return err
	}
	log.Info("Synthetic customers marked",
		zap.Int("scanned", markers.Scanned),
		zap.Int("updated", markers.Updated),
	)
	return nil
}
