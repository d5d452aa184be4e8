package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// queryLogger adapts GORM's logger interface to slog. Failed statements log at
// error, expected unique violations and slow statements at warn, the rest at
// debug when verbose.
type queryLogger struct {
	log     *slog.Logger
	level   logger.LogLevel
	slow    time.Duration
	verbose bool
}

func newQueryLogger(l *slog.Logger, slow time.Duration, verbose bool) *queryLogger {
	return &queryLogger{log: l.With("component", "gorm"), level: logger.Warn, slow: slow, verbose: verbose}
}

func (q *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *q
	cp.level = level
	return &cp
}

func (q *queryLogger) printf(ctx context.Context, lvl slog.Level, floor logger.LogLevel, msg string, data []any) {
	if q.level >= floor {
		q.log.Log(ctx, lvl, fmt.Sprintf(msg, data...))
	}
}

func (q *queryLogger) Info(ctx context.Context, msg string, data ...any) {
	q.printf(ctx, slog.LevelInfo, logger.Info, msg, data)
}

func (q *queryLogger) Warn(ctx context.Context, msg string, data ...any) {
	q.printf(ctx, slog.LevelWarn, logger.Warn, msg, data)
}

func (q *queryLogger) Error(ctx context.Context, msg string, data ...any) {
	q.printf(ctx, slog.LevelError, logger.Error, msg, data)
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var (
		lvl slog.Level
		msg string
	)
	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return
	case err != nil && IsUniqueViolation(err):
		lvl, msg = slog.LevelWarn, "duplicate key"
	case err != nil:
		if q.level < logger.Error {
			return
		}
		lvl, msg = slog.LevelError, "query failed"
	case q.slow > 0 && elapsed > q.slow:
		lvl, msg = slog.LevelWarn, "slow query"
	case q.verbose || q.level >= logger.Info:
		lvl, msg = slog.LevelDebug, "query"
	default:
		return
	}
	if lvl == slog.LevelWarn && q.level < logger.Warn {
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	q.log.LogAttrs(ctx, lvl, msg, attrs...)
}
