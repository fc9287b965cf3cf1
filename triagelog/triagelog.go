/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package triagelog is a leveled structured logger wrapping
// go.uber.org/zap. Its surface mirrors the shape of a conventional
// named-level logger package (OFF/DEBUG/INFO/.../FATAL plus
// Debugf/Infof/Warnf/Errorf), but every call is nil-safe: a nil
// *Logger discards silently so pipeline stages never have to check for
// one before logging.
package triagelog

import (
	"errors"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names the logger's verbosity, mirroring conventional leveled
// loggers in the pack.
type Level int

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
	FATAL
)

func (l Level) String() string {
	switch l {
	case OFF:
		return "OFF"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ErrInvalidLevel mirrors the teacher's sentinel for level parsing.
var ErrInvalidLevel = errors.New("triagelog: invalid log level")

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case CRITICAL:
		return zapcore.DPanicLevel
	case FATAL:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// LevelFromString parses a level name case-sensitively against the
// named constants above.
func LevelFromString(s string) (Level, error) {
	switch s {
	case "OFF":
		return OFF, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "CRITICAL":
		return CRITICAL, nil
	case "FATAL":
		return FATAL, nil
	default:
		return OFF, ErrInvalidLevel
	}
}

// Logger wraps a zap.SugaredLogger. The zero value is not usable;
// construct with New or NewDiscard. Method calls on a nil *Logger are
// no-ops, so callers never need a nil check before logging.
type Logger struct {
	lvl  Level
	sugar *zap.SugaredLogger
}

// New builds a Logger at the given level writing to w.
func New(lvl Level, w io.Writer) *Logger {
	if lvl == OFF {
		return NewDiscard()
	}
	enc := zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl.zapLevel())
	return &Logger{lvl: lvl, sugar: zap.New(core).Sugar()}
}

// NewDiscard returns a Logger that drops everything (equivalent to OFF).
func NewDiscard() *Logger {
	return &Logger{lvl: OFF, sugar: zap.NewNop().Sugar()}
}

// Level reports the configured level.
func (l *Logger) Level() Level {
	if l == nil {
		return OFF
	}
	return l.lvl
}

func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() error {
	if l == nil || l.sugar == nil {
		return nil
	}
	return l.sugar.Sync()
}
