// Package logging sets up the structured logger shared by hookwrap packages.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config configures the process logger.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" yaml:"format"`

	// File, when set, receives log output through a rotating writer
	// instead of stderr.
	File string `toml:"file" yaml:"file"`

	// Rotation settings for File.
	MaxSizeMB  int  `toml:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `toml:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `toml:"max_age_days" yaml:"max_age_days"`
	Compress   bool `toml:"compress" yaml:"compress"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "warn",
		Format:     FormatText,
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
	}
}

// ParseLevel parses a level name. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s names a known level.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// New builds a logger from cfg. The returned closer releases the log file
// and is a no-op when logging to stderr.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		out, closer = rotator, rotator
	}

	return slog.New(NewHandler(out, cfg)), closer, nil
}

// NewHandler returns a text or JSON handler writing to w.
func NewHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, FormatJSON) {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

var (
	processLogger     *slog.Logger
	processLoggerMu   sync.RWMutex
	processLoggerOnce sync.Once
)

// Get returns the process logger, creating a default one on first use.
func Get() *slog.Logger {
	processLoggerOnce.Do(func() {
		processLoggerMu.Lock()
		defer processLoggerMu.Unlock()
		if processLogger == nil {
			processLogger = slog.New(NewHandler(os.Stderr, DefaultConfig()))
		}
	})

	processLoggerMu.RLock()
	defer processLoggerMu.RUnlock()
	return processLogger
}

// Set replaces the process logger. Loggers already handed out by Component
// keep writing to the previous one, so call Set early.
func Set(l *slog.Logger) {
	if l == nil {
		return
	}
	processLoggerOnce.Do(func() {})

	processLoggerMu.Lock()
	defer processLoggerMu.Unlock()
	processLogger = l
}

// Component returns the process logger tagged with a component name.
func Component(name string) *slog.Logger {
	return Get().With("component", name)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
