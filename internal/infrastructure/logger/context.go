package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey contextKey = "logger"
	runIDKey  contextKey = "run_id"
	phaseKey  contextKey = "phase"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRunID tags the context and its logger with the run identifier
func WithRunID(ctx context.Context, runID string) context.Context {
	ctx = context.WithValue(ctx, runIDKey, runID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("run_id", runID)))
}

// WithPhase tags the context and its logger with the current pipeline phase.
// Nested calls replace the phase field rather than stacking it.
func WithPhase(ctx context.Context, phase string) context.Context {
	base, _ := ctx.Value(phaseBaseKey{}).(*zap.Logger)
	if base == nil {
		base = FromContext(ctx)
		ctx = context.WithValue(ctx, phaseBaseKey{}, base)
	}
	ctx = context.WithValue(ctx, phaseKey, phase)
	return WithContext(ctx, base.With(zap.String("phase", phase)))
}

type phaseBaseKey struct{}

// RunID returns the run identifier carried by ctx
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// Phase returns the pipeline phase carried by ctx
func Phase(ctx context.Context) string {
	p, _ := ctx.Value(phaseKey).(string)
	return p
}

// TraceID extracts the trace ID from the context's span, or ""
func TraceID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// L returns the context logger enriched with trace_id and span_id when the
// context carries a recording span.
//
//	logger.L(ctx).Info("phase finished", zap.Int("created", n))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
