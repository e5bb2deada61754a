// Package logging provides the structured logger shared by every component.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger interface for dependency injection. Fields are alternating
// key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// Options selects level and output encoding.
type Options struct {
	Level    string
	Encoding string
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// New builds a production zap logger writing to stdout.
func New(opts Options) (Logger, error) {
	z, err := Build(opts)
	if err != nil {
		return nil, err
	}
	return FromZap(z), nil
}

// Build returns the underlying zap logger for opts.
func Build(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Encoding != "" {
		cfg.Encoding = opts.Encoding
	}
	switch strings.ToLower(opts.Level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return nil, fmt.Errorf("unknown log level %q", opts.Level)
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) Logger {
	return &zapLogger{s: z.Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return FromZap(zap.NewNop())
}

func (l *zapLogger) Debug(msg string, fields ...interface{}) { l.s.Debugw(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...interface{})  { l.s.Infow(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...interface{})  { l.s.Warnw(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...interface{}) { l.s.Errorw(msg, fields...) }

func (l *zapLogger) With(fields ...interface{}) Logger {
	return &zapLogger{s: l.s.With(fields...)}
}

// Component returns a child logger tagged with the component name.
func Component(l Logger, name string) Logger {
	return l.With("component", name)
}
