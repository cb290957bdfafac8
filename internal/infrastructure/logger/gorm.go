package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// SQLLogConfig controls how store statements reach the run log
type SQLLogConfig struct {
	// Level is one of silent, error, warn, info or debug
	Level string
	// SlowThreshold marks statements slower than this as warnings; 0 disables it
	SlowThreshold time.Duration
	// Expected reports errors that are part of normal operation, such as the
	// unique violations a key fallback recovers from. They log at debug.
	Expected func(error) bool
}

// SQLLogger feeds GORM statements into zap, tagged with the run and phase
// carried by the statement's context.
type SQLLogger struct {
	base  *zap.Logger
	level gormlogger.LogLevel
	cfg   SQLLogConfig
}

// NewSQLLogger returns a gormlogger.Interface writing to log.Named("sql")
func NewSQLLogger(log *zap.Logger, cfg SQLLogConfig) *SQLLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLLogger{base: log.Named("sql"), level: SQLLevel(cfg.Level), cfg: cfg}
}

// SQLLevel maps a configured level name to GORM's scale. Unknown names
// fall back to warn.
func SQLLevel(name string) gormlogger.LogLevel {
	switch name {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	}
	return gormlogger.Warn
}

// LogMode implements gormlogger.Interface
func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.scoped(ctx).Sugar().Infof(msg, data...)
	}
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.scoped(ctx).Sugar().Warnf(msg, data...)
	}
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.scoped(ctx).Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface. Missing records are never logged;
// the repositories turn them into shared.ErrNotFound.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	stmt, rows := fc()
	log := l.scoped(ctx).With(
		zap.String("sql", stmt),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)

	switch {
	case err != nil && l.cfg.Expected != nil && l.cfg.Expected(err):
		log.Debug("Statement rejected by constraint", zap.Error(err))
	case err != nil:
		if l.level >= gormlogger.Error {
			log.Error("Statement failed", zap.Error(err))
		}
	case l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold:
		if l.level >= gormlogger.Warn {
			log.Warn("Slow statement", zap.Duration("threshold", l.cfg.SlowThreshold))
		}
	case l.level >= gormlogger.Info:
		log.Debug("Statement")
	}
}

func (l *SQLLogger) scoped(ctx context.Context) *zap.Logger {
	log := l.base
	if id := RunID(ctx); id != "" {
		log = log.With(zap.String("run_id", id))
	}
	if p := Phase(ctx); p != "" {
		log = log.With(zap.String("phase", p))
	}
	return log
}

var _ gormlogger.Interface = (*SQLLogger)(nil)
