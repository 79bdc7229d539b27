// Package logger builds the application's zap logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Service string
	Env     string
	Level   string
}

// New returns a JSON logger, or a console logger when Env is "dev", and
// installs it as zap's global logger.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Env == "dev" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(opts.Level))

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("service", opts.Service), zap.String("env", opts.Env))

	zap.ReplaceGlobals(log)
	return log, nil
}

func ParseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
