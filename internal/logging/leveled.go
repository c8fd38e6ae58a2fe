package logging

import (
	"fmt"
	"log"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fileutils/internal/config"
)

// Leveled is the key-value logger the library packages accept.
type Leveled interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Std wraps standard log.Logger to implement Leveled
type Std struct {
	*log.Logger
	debug bool
}

// NewStd adapts logger; a nil logger falls back to log.Default().
func NewStd(logger *log.Logger, level string) *Std {
	if logger == nil {
		logger = log.Default()
	}
	return &Std{Logger: logger, debug: strings.EqualFold(level, "debug")}
}

func (l *Std) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.logWithLevel("DEBUG", msg, args...)
	}
}

func (l *Std) Info(msg string, args ...interface{}) {
	l.logWithLevel("INFO", msg, args...)
}

func (l *Std) Warn(msg string, args ...interface{}) {
	l.logWithLevel("WARN", msg, args...)
}

func (l *Std) Error(msg string, args ...interface{}) {
	l.logWithLevel("ERROR", msg, args...)
}

func (l *Std) logWithLevel(level, msg string, args ...interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	l.Logger.Println(b.String())
}

// Zap implements Leveled with a JSON zap logger
type Zap struct {
	sugar *zap.SugaredLogger
}

// NewZap builds a production JSON logger writing to outputs, stdout when none are given
func NewZap(level string, outputs ...string) (*Zap, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	zapCfg.OutputPaths = outputs
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &Zap{sugar: logger.Sugar()}, nil
}

func (z *Zap) Debug(msg string, args ...interface{}) { z.sugar.Debugw(msg, args...) }
func (z *Zap) Info(msg string, args ...interface{})  { z.sugar.Infow(msg, args...) }
func (z *Zap) Warn(msg string, args ...interface{})  { z.sugar.Warnw(msg, args...) }
func (z *Zap) Error(msg string, args ...interface{}) { z.sugar.Errorw(msg, args...) }

// Sync flushes buffered entries
func (z *Zap) Sync() error {
	return z.sugar.Sync()
}

// Nop discards everything
type Nop struct{}

func (Nop) Debug(string, ...interface{}) {}
func (Nop) Info(string, ...interface{})  {}
func (Nop) Warn(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}

// NewLeveled picks the implementation configured by logging.format.
// zapOutputs only apply to the json format.
func NewLeveled(cfg *config.Config, std *log.Logger, zapOutputs ...string) (Leveled, error) {
	if cfg != nil && cfg.Logging.Format == "json" {
		return NewZap(cfg.Logging.Level, zapOutputs...)
	}
	level := "info"
	if cfg != nil {
		level = cfg.Logging.Level
	}
	return NewStd(std, level), nil
}
