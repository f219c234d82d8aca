// Package logging builds the service logger and bridges capitan events
// into it.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rotated log file inside the log folder.
const FileName = "sequent.log"

// Options configure New.
type Options struct {
	Folder string
	Debug  bool

	// Console receives human-readable output. It defaults to stderr since
	// stdout carries the stdio transport.
	Console io.Writer
}

// New creates a logger writing JSON lines to a rotated file and a console
// encoding to Console. Sensitive fields are redacted on both.
func New(opts Options) (*zap.Logger, error) {
	if opts.Folder == "" {
		opts.Folder = "logs"
	}
	if err := os.MkdirAll(opts.Folder, 0o755); err != nil {
		return nil, err
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	// 1. Configure Rotation (Lumberjack)
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Folder, FileName),
		MaxSize:    10,   // Megabytes
		MaxBackups: 5,    // Files
		MaxAge:     30,   // Days
		Compress:   true, // gzip
	}

	// 2. Configure Encoder (JSON)
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}

	// 3. Configure Output Cores
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		level,
	)
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(zapcore.AddSync(console)),
		level,
	)

	core := Redact(zapcore.NewTee(fileCore, consoleCore))
	return zap.New(core, zap.AddCaller()), nil
}

// SDKLogger returns the slog logger handed to the MCP SDK. It discards
// everything unless debug is set.
func SDKLogger(debug bool, w io.Writer) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
