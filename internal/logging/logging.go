// Package logging builds the *slog.Logger handed to every component.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Mode selects where log output goes.
type Mode int

const (
	// Console writes text records to stderr. Used by long-running commands.
	Console Mode = iota
	// File writes to a rotated log file so interactive screens stay clean.
	// Debug level also copies records to stderr.
	File
)

// Options configures New.
type Options struct {
	Mode  Mode
	Level string
	File  string
}

// ParseLevel maps a config level name onto slog.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger and a closer for any file it opened.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)

	if opts.Mode == Console {
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		return slog.New(h), nopCloser{}, nil
	}

	if opts.File == "" {
		return nil, nil, fmt.Errorf("log file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	var w io.Writer = fileWriter
	if level == slog.LevelDebug {
		w = io.MultiWriter(os.Stderr, fileWriter)
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportCaller:    level == slog.LevelDebug,
		ReportTimestamp: true,
		Level:           charmLevel(level),
		Prefix:          "ascend",
	})
	return slog.New(handler), fileWriter, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func charmLevel(l slog.Level) charmlog.Level {
	switch {
	case l <= slog.LevelDebug:
		return charmlog.DebugLevel
	case l <= slog.LevelInfo:
		return charmlog.InfoLevel
	case l <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}
