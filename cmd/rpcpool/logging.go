package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dy604/NettyRPC2.0/pkg/config/poolconf"
)

// newLogger writes console lines to stderr and, when a file is configured,
// JSON lines to a size rotated file. The returned func closes the file.
func newLogger(s poolconf.LogSettings) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(s.Level)
	if err != nil {
		return nil, nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level),
	}
	closeFile := func() error { return nil }

	if s.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   s.File,
			MaxSize:    s.MaxSizeMB,
			MaxBackups: s.MaxBackups,
			MaxAge:     s.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level))
		closeFile = rotator.Close
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), closeFile, nil
}
