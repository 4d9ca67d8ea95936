package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold is the duration above which a statement is logged as a warning.
const SlowQueryThreshold = 200 * time.Millisecond

// GormLogger routes GORM's statement log through Logrus.
type GormLogger struct {
	Entry         *logrus.Entry
	SlowThreshold time.Duration
	level         gormlogger.LogLevel
}

// NewGormLogger returns a GORM logger writing to the standard Logrus logger.
// Statements are traced only when Logrus runs at debug level or below.
func NewGormLogger() *GormLogger {
	level := gormlogger.Warn
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	return &GormLogger{
		Entry:         logrus.WithField("component", "gorm"),
		SlowThreshold: SlowQueryThreshold,
		level:         level,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.Entry.WithContext(ctx).Infof(msg, args...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.Entry.WithContext(ctx).Warnf(msg, args...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.Entry.WithContext(ctx).Errorf(msg, args...)
	}
}

// Trace logs one executed statement. Record-not-found is an expected
// outcome of lookups and is never logged as an error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := l.Entry.WithContext(ctx).WithFields(logrus.Fields{
		"elapsed": elapsed.String(),
		"rows":    rows,
	})

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		entry.WithError(err).Error(sql)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.level >= gormlogger.Warn:
		entry.Warn(fmt.Sprintf("SLOW SQL >= %v: %s", l.SlowThreshold, sql))
	case l.level >= gormlogger.Info:
		entry.Debug(sql)
	}
}
