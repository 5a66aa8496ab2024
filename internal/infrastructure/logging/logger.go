// Package logging provides the zap-based logger shared by all sandbox
// components. A library embedded in test binaries must stay quiet unless
// asked, so the default logger is a no-op.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with convenience constructors.
type Logger struct {
	*zap.Logger
}

// Nop returns a logger that discards everything. This is the default for
// sandbox instances unless node logging is enabled.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// NewDevelopment creates a console logger for debugging sandbox startup.
func NewDevelopment() *Logger {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.DebugLevel),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return Nop()
	}
	return &Logger{Logger: logger}
}

// ForNode returns the logger used for a sandbox instance: a development
// console logger when enabled, otherwise a no-op.
func ForNode(enabled bool) *Logger {
	if enabled {
		return NewDevelopment()
	}
	return Nop()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		MessageKey:     "M",
		FunctionKey:    zapcore.OmitKey,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
