package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dailyyoga/seatsync/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

// gormLogger routes gorm's log calls and query traces into zap with a
// component=gorm field
type gormLogger struct {
	logger logger.Logger
	level  glogger.LogLevel
	slow   time.Duration
}

var _ glogger.Interface = (*gormLogger)(nil)

func newGormLogger(log logger.Logger, cfg *Config) *gormLogger {
	return &gormLogger{logger: log, level: gormLevel(cfg.LogLevel), slow: cfg.SlowThreshold}
}

// gormLevel maps a config level, warn when unknown
func gormLevel(level string) glogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return glogger.Silent
	case "error":
		return glogger.Error
	case "info":
		return glogger.Info
	default:
		return glogger.Warn
	}
}

func (g *gormLogger) LogMode(level glogger.LogLevel) glogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLogger) emit(at glogger.LogLevel, msg string, fields ...zap.Field) {
	if g.level < at {
		return
	}
	fields = append(fields, zap.String("component", "gorm"))
	switch at {
	case glogger.Error:
		g.logger.Error(msg, fields...)
	case glogger.Warn:
		g.logger.Warn(msg, fields...)
	default:
		g.logger.Info(msg, fields...)
	}
}

func (g *gormLogger) Info(_ context.Context, msg string, data ...any) {
	g.emit(glogger.Info, fmt.Sprintf(msg, data...))
}

func (g *gormLogger) Warn(_ context.Context, msg string, data ...any) {
	g.emit(glogger.Warn, fmt.Sprintf(msg, data...))
}

func (g *gormLogger) Error(_ context.Context, msg string, data ...any) {
	g.emit(glogger.Error, fmt.Sprintf(msg, data...))
}

// Trace logs a failed query as an error and a slow one as a warning. Every
// query, including a missing record, is traced at info.
func (g *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= glogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	query, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", query),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= glogger.Error:
		g.emit(glogger.Error, "sql error", append(fields, zap.Error(err))...)
	case g.slow > 0 && elapsed > g.slow && g.level >= glogger.Warn:
		g.emit(glogger.Warn, "slow sql", append(fields, zap.Duration("threshold", g.slow))...)
	default:
		g.emit(glogger.Info, "sql trace", fields...)
	}
}
