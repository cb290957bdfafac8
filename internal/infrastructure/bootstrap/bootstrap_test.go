package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/migrator/internal/infrastructure/config"
	"github.com/erp/migrator/internal/infrastructure/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{URL: "sqlite::memory:", LogLevel: "silent"},
		Lock:     config.LockConfig{TTL: time.Minute, Prefix: "test:lock:"},
	}
}

func TestEnv_Lifecycle(t *testing.T) {
	ctx := context.Background()
	env, err := Open(ctx, sqliteConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer env.Close(ctx)

	require.NoError(t, env.PrepareSchema(ctx))
	n, err := env.Store.Audit.Count(ctx, "suppliers")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, env.Lock(ctx))
	_, err = lock.Acquire(ctx, env.locker, "test:lock:", StoreLockName, time.Minute)
	assert.ErrorIs(t, err, lock.ErrHeld)
}

func TestEnv_OpenWorkbook(t *testing.T) {
	ctx := context.Background()
	env, err := Open(ctx, sqliteConfig(), nil)
	require.NoError(t, err)
	defer env.Close(ctx)

	path := filepath.Join(t.TempDir(), "compras.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Proveedores"))
	require.NoError(t, f.SetSheetRow("Proveedores", "A1", &[]any{"CODIGO", "NOMBRE"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := env.OpenWorkbook(ctx, path)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Proveedores"}, wb.SheetNames())

	_, err = env.OpenWorkbook(ctx, filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestOpen_LoggerWithoutTelemetry(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	env, err := Open(ctx, sqliteConfig(), log)
	require.NoError(t, err)
	defer env.Close(ctx)

	assert.Same(t, log, env.Logger)
	assert.False(t, env.logs.IsEnabled())
}

func TestOpen_LoggerTeedToCollector(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping exporter setup in short mode")
	}
	prevTracer, prevMeter, prevLogs := otel.GetTracerProvider(), otel.GetMeterProvider(), global.GetLoggerProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTracer)
		otel.SetMeterProvider(prevMeter)
		global.SetLoggerProvider(prevLogs)
	})

	cfg := sqliteConfig()
	// the gRPC exporters connect lazily, so no collector is needed
	cfg.Telemetry = config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:4317",
		ServiceName:       "erp-migrator-test",
		Insecure:          true,
	}
	core, console := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	ctx := context.Background()
	env, err := Open(ctx, cfg, log)
	require.NoError(t, err)
	defer func() {
		// a cancelled context skips the export attempts against the absent collector
		stopped, cancel := context.WithCancel(ctx)
		cancel()
		_ = env.logs.Shutdown(stopped)
		_ = env.tracer.Shutdown(stopped)
		_ = env.Meters.Shutdown(stopped)
		env.logs, env.tracer, env.Meters = nil, nil, nil
		env.Close(ctx)
	}()

	require.True(t, env.logs.IsEnabled())
	assert.NotSame(t, log, env.Logger)

	env.Logger.Info("Run started")
	assert.Equal(t, 1, console.FilterMessage("Run started").Len(), "console output survives the tee")
}
