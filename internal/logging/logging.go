// Package logging builds the logger shared by the CLI and the engine.
//
// The logger is a zap core behind the zlog.ZLogger interface, so it can be
// attached to a context with lg.Attach and picked up by the engine with
// lg.FromContext.
package logging

import (
	"errors"
	"fmt"
	"strings"

	lg "github.com/Andrej220/go-utils/zlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = lg.ZLoggerConsoleFormat
	FormatJSON    = lg.ZLoggerJsonFormat
)

var ErrUnknownFormat = errors.New("logging: unknown format")

// New returns a logger writing to stderr at level in the given format.
// level accepts zap's names ("debug", "info", "warn", "error"); an empty
// level means info and an empty format means console.
//
// Unlike lg.New, every entry is kept: per-item events must not be sampled.
func New(level, format string) (lg.ZLogger, error) {
	l, err := NewZap(level, format)
	if err != nil {
		return nil, err
	}
	return FromZap(l), nil
}

// NewZap is New without the zlog wrapper.
func NewZap(level, format string) (*zap.Logger, error) {
	cfg, err := Config(level, format)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

// Config returns the zap configuration NewZap builds from.
func Config(level, format string) (zap.Config, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return zap.Config{}, fmt.Errorf("logging: level %q: %w", level, err)
		}
	}

	var cfg zap.Config
	switch strings.ToLower(format) {
	case "", FormatConsole:
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case FormatJSON:
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	default:
		return zap.Config{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg, nil
}

// FromZap adapts l to lg.ZLogger. A nil l discards everything.
func FromZap(l *zap.Logger) lg.ZLogger {
	if l == nil {
		return lg.Discard
	}
	return &zapLogger{l: l}
}

type zapLogger struct{ l *zap.Logger }

func (z *zapLogger) Debug(msg string, fields ...lg.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...lg.Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...lg.Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...lg.Field) { z.l.Error(msg, fields...) }

func (z *zapLogger) With(fields ...lg.Field) lg.ZLogger {
	return &zapLogger{l: z.l.With(fields...)}
}

func (z *zapLogger) Sync() error { return z.l.Sync() }
