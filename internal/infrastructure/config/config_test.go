package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("fails without DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("ERP_DATABASE_URL", "")

		cfg, err := Load()
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrDatabaseURLRequired)
	})

	t.Run("loads default values when only DATABASE_URL is set", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://postgres@localhost:5432/erp?sslmode=disable")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "erp-migrator", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "postgres://postgres@localhost:5432/erp?sslmode=disable", cfg.Database.URL)
		assert.Equal(t, 10, cfg.Database.MaxOpenConns)
		assert.Equal(t, 2, cfg.Database.MaxIdleConns)
		assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowThreshold)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 2*time.Hour, cfg.Lock.TTL)
		assert.Equal(t, "America/Asuncion", cfg.Source.Location)
		assert.Equal(t, "Compras y Saldos", cfg.Source.PurchaseSheet)
		assert.Equal(t, "Detalle Ventas", cfg.Source.SaleLineSheet)
		assert.Equal(t, 20, cfg.Source.FlagLimit)
		assert.Equal(t, "sin-correo.local", cfg.Source.PlaceholderEmail)
		assert.Equal(t, "PYG", cfg.Source.DefaultCurrency)
		assert.Equal(t, "erp-migrator", cfg.Telemetry.ServiceName)
	})

	t.Run("ERP_ prefixed variables override defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/erp")
		t.Setenv("ERP_SOURCE_FLAG_LIMIT", "5")
		t.Setenv("ERP_SOURCE_SALES_WORKBOOK", "s3://legacy/ventas.xlsx")
		t.Setenv("ERP_REDIS_ENABLED", "true")
		t.Setenv("ERP_LOCK_TTL", "30m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 5, cfg.Source.FlagLimit)
		assert.Equal(t, "s3://legacy/ventas.xlsx", cfg.Source.SalesWorkbook)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 30*time.Minute, cfg.Lock.TTL)
	})

	t.Run("ERP_DATABASE_URL is accepted", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("ERP_DATABASE_URL", "sqlite::memory:")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Database.IsSQLite())
	})

	t.Run("rejects unknown location", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/erp")
		t.Setenv("ERP_SOURCE_LOCATION", "Mars/Olympus")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects idle connections above open connections", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/erp")
		t.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "2")
		t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "5")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		url    string
		sqlite bool
		dsn    string
	}{
		{"postgres://u:p@db:5432/erp?sslmode=disable", false, "postgres://u:p@db:5432/erp?sslmode=disable"},
		{"sqlite::memory:", true, ":memory:"},
		{"sqlite:///tmp/erp.db", true, "/tmp/erp.db"},
		{"file:erp.db?cache=shared", true, "file:erp.db?cache=shared"},
	}
	for _, tt := range tests {
		d := DatabaseConfig{URL: tt.url}
		assert.Equal(t, tt.sqlite, d.IsSQLite(), tt.url)
		assert.Equal(t, tt.dsn, d.DSN(), tt.url)
	}
}
