package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration // Default: 15s
	ServiceName       string
	Insecure          bool
}

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	config   MetricsConfig
}

// NewMeterProvider creates and installs the global MeterProvider.
// If metrics are disabled the global no-op meter is used.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mp := &MeterProvider{logger: logger, config: cfg}
	if !cfg.Enabled {
		logger.Debug("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	// runs are short, export more often than a server would
	exportInterval := cfg.ExportInterval
	if exportInterval == 0 {
		exportInterval = 15 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", exportInterval),
	)
	return mp, nil
}

// NewMeterProviderWithReader builds an enabled provider around reader
// without touching the global provider.
func NewMeterProviderWithReader(reader sdkmetric.Reader) *MeterProvider {
	return &MeterProvider{
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		logger:   zap.NewNop(),
		config:   MetricsConfig{Enabled: true},
	}
}

// Shutdown flushes pending metrics and stops the provider.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp == nil || mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled returns whether metrics are enabled.
func (mp *MeterProvider) IsEnabled() bool {
	return mp.config.Enabled && mp.provider != nil
}

// Metric attribute keys
var (
	AttrKind    = attribute.Key("kind")
	AttrOutcome = attribute.Key("outcome")
	AttrPhase   = attribute.Key("phase")
	AttrTool    = attribute.Key("tool")
)

// PhaseDurationBuckets are bucket boundaries for phase duration (seconds).
var PhaseDurationBuckets = []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 300}

// RunMetrics records per-row outcomes and phase durations of a run.
type RunMetrics struct {
	rows      metric.Int64Counter
	rowErrors metric.Int64Counter
	phases    metric.Float64Histogram
}

// NewRunMetrics registers the run instruments on meter.
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	rows, err := meter.Int64Counter("migration_rows_total",
		metric.WithDescription("Rows processed by entity kind and outcome"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter migration_rows_total: %w", err)
	}
	rowErrors, err := meter.Int64Counter("migration_row_errors_total",
		metric.WithDescription("Source rows that failed to decode"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter migration_row_errors_total: %w", err)
	}
	phases, err := meter.Float64Histogram("migration_phase_duration_seconds",
		metric.WithDescription("Duration of each migration phase"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(PhaseDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram migration_phase_duration_seconds: %w", err)
	}
	return &RunMetrics{rows: rows, rowErrors: rowErrors, phases: phases}, nil
}

// AddRows adds n rows of kind with the given outcome (created, updated,
// skipped, fallback_used).
func (m *RunMetrics) AddRows(ctx context.Context, kind, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rows.Add(ctx, int64(n), metric.WithAttributes(AttrKind.String(kind), AttrOutcome.String(outcome)))
}

// AddRowErrors adds n decode failures for kind.
func (m *RunMetrics) AddRowErrors(ctx context.Context, kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rowErrors.Add(ctx, int64(n), metric.WithAttributes(AttrKind.String(kind)))
}

// RecordPhase records how long phase took.
func (m *RunMetrics) RecordPhase(ctx context.Context, phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phases.Record(ctx, d.Seconds(), metric.WithAttributes(AttrPhase.String(phase)))
}
