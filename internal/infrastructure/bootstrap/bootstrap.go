// Package bootstrap wires the shared runtime of the migration tools:
// logger, telemetry, target store, run lock and workbook storage.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/migrator/internal/infrastructure/config"
	"github.com/erp/migrator/internal/infrastructure/lock"
	"github.com/erp/migrator/internal/infrastructure/logger"
	"github.com/erp/migrator/internal/infrastructure/migration"
	"github.com/erp/migrator/internal/infrastructure/persistence"
	"github.com/erp/migrator/internal/infrastructure/storage"
	"github.com/erp/migrator/internal/infrastructure/telemetry"
	"github.com/erp/migrator/internal/infrastructure/workbook"
	"go.uber.org/zap"
)

// StoreLockName is the run lock shared by every tool that writes the store
const StoreLockName = "target-store"

// Env is the runtime of one tool invocation
type Env struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *persistence.Database
	Store   *persistence.Store
	Storage *storage.Router
	Meters  *telemetry.MeterProvider

	tracer *telemetry.TracerProvider
	logs   *telemetry.LoggerProvider
	locker lock.Locker
	lease  *lock.Lease
}

// NewLogger builds the logger of tool from the log settings
func NewLogger(tool string, cfg config.LogConfig) (*zap.Logger, error) {
	return logger.ForTool(tool, &logger.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// Open connects everything the tools share. On error the parts already
// opened are closed.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (env *Env, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	env = &Env{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			env.Close(ctx)
			env = nil
		}
	}()

	env.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return env, fmt.Errorf("tracer provider: %w", err)
	}
	env.Meters, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return env, fmt.Errorf("meter provider: %w", err)
	}
	env.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return env, fmt.Errorf("logger provider: %w", err)
	}
	// console output is kept; enabled telemetry adds the OTLP copy
	log = env.logs.Bridge(log, log.Level())
	env.Logger = log

	env.DB, err = persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return env, err
	}
	system := "postgresql"
	if cfg.Database.IsSQLite() {
		system = "sqlite"
	}
	if err = telemetry.InstrumentDB(env.DB.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled,
		DBSystem: system,
	}, log); err != nil {
		return env, fmt.Errorf("instrument database: %w", err)
	}
	env.Store = persistence.NewStore(env.DB.DB)

	env.locker, err = lock.New(cfg.Redis)
	if err != nil {
		return env, fmt.Errorf("run lock: %w", err)
	}
	env.Storage = storage.NewRouter(&cfg.Storage, log)
	return env, nil
}

// PrepareSchema brings the store schema up to date. PostgreSQL stores run
// the versioned migrations; SQLite stores are created from the models.
func (e *Env) PrepareSchema(ctx context.Context) error {
	if e.Config.Database.IsSQLite() {
		if err := e.DB.AutoMigrate(); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}
	sqlDB, err := e.DB.DB.WithContext(ctx).DB()
	if err != nil {
		return err
	}
	// the migrator is not closed: closing it closes the shared pool
	m, err := migration.New(sqlDB, e.Logger)
	if err != nil {
		return err
	}
	return m.Up()
}

// Lock takes the store run lock for the lifetime of the Env
func (e *Env) Lock(ctx context.Context) error {
	lease, err := lock.Acquire(ctx, e.locker, e.Config.Lock.Prefix, StoreLockName, e.Config.Lock.TTL)
	if err != nil {
		return err
	}
	e.lease = lease
	e.Logger.Debug("Run lock acquired", zap.String("key", lease.Key))
	return nil
}

// OpenWorkbook reads the workbook at a local path or s3:// URI
func (e *Env) OpenWorkbook(ctx context.Context, uri string) (*workbook.Workbook, error) {
	rc, err := e.Storage.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	wb, err := workbook.Open(rc, uri)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", uri, err)
	}
	return wb, nil
}

// Close releases the lock and shuts down the store and telemetry. Log
// export stops last so the shutdown itself is still exported.
func (e *Env) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	var errs []error
	if e.lease != nil {
		errs = append(errs, e.lease.Release(ctx))
		e.lease = nil
	}
	if e.locker != nil {
		errs = append(errs, e.locker.Close())
	}
	if e.DB != nil {
		errs = append(errs, e.DB.Close())
	}
	if e.Meters != nil {
		errs = append(errs, e.Meters.Shutdown(ctx))
	}
	if e.tracer != nil {
		errs = append(errs, e.tracer.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		e.Logger.Warn("Shutdown incomplete", zap.Error(err))
	}
	if e.logs != nil {
		if err := e.logs.Shutdown(ctx); err != nil {
			e.Logger.Warn("Log export shutdown incomplete", zap.Error(err))
		}
	}
}
