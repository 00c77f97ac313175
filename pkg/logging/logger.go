// Package logging adapts go.uber.org/zap into the small Logger interface the
// orchestrator package depends on, and wires in lumberjack for rotation the
// way the rest of the retrieved example pack sets up file-backed logging.
package logging

import (
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Zap satisfies orchestrator.Logger by forwarding to a sugared zap logger.
type Zap struct {
	sugar *zap.SugaredLogger
}

// Options configures the rotating file sink. A zero value logs to stdout only.
type Options struct {
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Component  string
}

func New(opts Options) *Zap {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		zap.InfoLevel,
	)

	cores := []zapcore.Core{consoleCore}

	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    firstNonZero(opts.MaxSizeMB, 100),
			MaxBackups: firstNonZero(opts.MaxBackups, 5),
			MaxAge:     firstNonZero(opts.MaxAgeDays, 14),
			Compress:   true,
		}
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(rotator),
			zap.InfoLevel,
		)
		cores = append(cores, fileCore)
	}

	base := zap.New(zapcore.NewTee(cores...))
	if opts.Component != "" {
		base = base.With(zap.String("component", opts.Component))
	}
	return &Zap{sugar: base.Sugar()}
}

func firstNonZero(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (z *Zap) Debug(msg string, args ...interface{}) { z.sugar.Debugw(msg, args...) }
func (z *Zap) Info(msg string, args ...interface{})  { z.sugar.Infow(msg, args...) }
func (z *Zap) Warn(msg string, args ...interface{})  { z.sugar.Warnw(msg, args...) }
func (z *Zap) Error(msg string, args ...interface{}) { z.sugar.Errorw(msg, args...) }

// Sync flushes buffered log entries; call on shutdown.
func (z *Zap) Sync() error { return z.sugar.Sync() }

// With returns a child logger tagged with the given component name, mirroring
// the per-component tagging the original Python logger used.
func (z *Zap) With(component string) *Zap {
	return &Zap{sugar: z.sugar.With("component", component)}
}
