package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 500 * time.Millisecond

// Gorm adapts a zap logger to gorm's logger interface. SQL statements are
// traced at debug level only; slow queries and failures are surfaced as warnings.
type Gorm struct {
	logger *zap.Logger
	level  gormlogger.LogLevel
}

func NewGorm(logger *zap.Logger) *Gorm {
	return &Gorm{
		logger: WithFields(logger).Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		level:  gormlogger.Warn,
	}
}

func (g *Gorm) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *Gorm) Info(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (g *Gorm) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.logger.Warn(fmt.Sprintf(msg, args...))
	}
}

func (g *Gorm) Error(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.logger.Error(fmt.Sprintf(msg, args...))
	}
}

func (g *Gorm) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		sql, rows := fc()
		g.logger.Warn("sql query failed", zap.Error(err), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case elapsed > slowQueryThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.logger.Warn("slow sql query", zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case g.logger.Core().Enabled(zap.DebugLevel):
		sql, rows := fc()
		g.logger.Debug("sql query", zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	}
}
