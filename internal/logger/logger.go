// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package logger builds the zap logger used by the tpool command: a
// human-readable console core plus an optional rotating JSON file core.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	Level      zapcore.Level
	Console    io.Writer // nil disables console output
	JSONFormat bool      // JSON instead of human-readable console output
	Filename   string    // empty disables file output
	MaxSize    int       // megabytes
	MaxAge     int       // days
	MaxBackups int
	Compress   bool
}

const (
	DefaultMaxSize    = 100
	DefaultMaxAge     = 30
	DefaultMaxBackups = 10
)

type Option func(*Config)

// WithLevel sets the logging level by name. Unknown names select info.
func WithLevel(level string) Option {
	return func(c *Config) {
		l, err := zapcore.ParseLevel(level)
		if err != nil {
			l = zapcore.InfoLevel
		}
		c.Level = l
	}
}

func WithConsole(w io.Writer) Option {
	return func(c *Config) { c.Console = w }
}

func WithJSONFormat(enabled bool) Option {
	return func(c *Config) { c.JSONFormat = enabled }
}

// WithFilename enables rotating JSON file output to the named file.
func WithFilename(filename string) Option {
	return func(c *Config) { c.Filename = filename }
}

func WithRotation(maxSize, maxAge, maxBackups int, compress bool) Option {
	return func(c *Config) {
		c.MaxSize = maxSize
		c.MaxAge = maxAge
		c.MaxBackups = maxBackups
		c.Compress = compress
	}
}

// New builds a logger. By default it logs at info level to stderr in
// human-readable form.
func New(opts ...Option) (*zap.Logger, error) {
	config := &Config{
		Level:      zapcore.InfoLevel,
		Console:    os.Stderr,
		MaxSize:    DefaultMaxSize,
		MaxAge:     DefaultMaxAge,
		MaxBackups: DefaultMaxBackups,
		Compress:   true,
	}
	for _, opt := range opts {
		opt(config)
	}

	var cores []zapcore.Core

	if config.Console != nil {
		var encoder zapcore.Encoder
		if config.JSONFormat {
			jsonConfig := zap.NewProductionEncoderConfig()
			jsonConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			jsonConfig.StacktraceKey = ""
			encoder = zapcore.NewJSONEncoder(jsonConfig)
		} else {
			consoleConfig := zap.NewDevelopmentEncoderConfig()
			consoleConfig.EncodeTime = zapcore.RFC3339TimeEncoder
			consoleConfig.EncodeLevel = zapcore.CapitalLevelEncoder
			consoleConfig.EncodeCaller = zapcore.ShortCallerEncoder
			encoder = zapcore.NewConsoleEncoder(consoleConfig)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(config.Console), config.Level))
	}

	if config.Filename != "" {
		if err := os.MkdirAll(filepath.Dir(config.Filename), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		fileEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:      "ts",
			LevelKey:     "level",
			NameKey:      "logger",
			CallerKey:    "caller",
			MessageKey:   "msg",
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		})
		cores = append(cores, zapcore.NewCore(
			fileEncoder,
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   config.Filename,
				MaxSize:    config.MaxSize,
				MaxAge:     config.MaxAge,
				MaxBackups: config.MaxBackups,
				Compress:   config.Compress,
			}),
			config.Level,
		))
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("no output configured for logger")
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
