package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/migrator/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())

	m, err := telemetry.NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.AddRows(context.Background(), "supplier", "created", 1)
	})
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestRunMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := telemetry.NewMeterProviderWithReader(reader)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := telemetry.NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.AddRows(ctx, "supplier", "created", 3)
	m.AddRows(ctx, "supplier", "fallback_used", 1)
	m.AddRows(ctx, "customer", "created", 0)
	m.AddRowErrors(ctx, "sale", 2)
	m.RecordPhase(ctx, "suppliers", 1500*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, md := range rm.ScopeMetrics[0].Metrics {
		byName[md.Name] = md
	}

	rows, ok := byName["migration_rows_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range rows.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(4), total)
	assert.Len(t, rows.DataPoints, 2)

	errs, ok := byName["migration_row_errors_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	assert.Equal(t, int64(2), errs.DataPoints[0].Value)

	phases, ok := byName["migration_phase_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, phases.DataPoints, 1)
	assert.Equal(t, uint64(1), phases.DataPoints[0].Count)
}

func TestRunMetrics_Nil(t *testing.T) {
	var m *telemetry.RunMetrics
	assert.NotPanics(t, func() {
		m.AddRows(context.Background(), "x", "created", 1)
		m.AddRowErrors(context.Background(), "x", 1)
		m.RecordPhase(context.Background(), "x", time.Second)
	})
}
