package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the on-device log file. A run is short, but the tool is
// usually invoked repeatedly from scripts on an SD card.
const (
	logFileMaxSizeMB  = 5
	logFileMaxBackups = 3
	logFileMaxAgeDays = 28
)

// NewFileLogger returns a logger that writes to stdout like NewLogger and also appends
// plain-text entries to the rotating file at path.
func NewFileLogger(name, path string, debug bool) Logger {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	config := NewLoggerConfig()
	config.Level = zap.NewAtomicLevelAt(level)

	fileEncoderConfig := config.EncoderConfig
	fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(fileEncoderConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
		}),
		config.Level,
	)

	return zap.Must(config.Build(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))).Sugar().Named(name)
}
