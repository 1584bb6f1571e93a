package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings for the optional log file.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config controls where and how rewind logs.
type Config struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // text or json
	File       string `mapstructure:"file"`   // optional rotating log file
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds a logger writing to stdout, and to a rotating file when
// cfg.File is set. The returned closer flushes the file; it is a no-op
// without one.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	return newWithWriter(cfg, os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
}

// NewTo is New with an explicit destination instead of stdout. Color is
// used only when w is a terminal.
func NewTo(cfg Config, w io.Writer) (*slog.Logger, io.Closer, error) {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return newWithWriter(cfg, w, tty)
}

func newWithWriter(cfg Config, stdout io.Writer, tty bool) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var closer io.Closer = nopCloser{}
	w := stdout
	if cfg.File != "" {
		file := &lj.Logger{
			Filename:   cfg.File,
			MaxSize:    valOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(cfg.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   cfg.Compress,
		}
		closer = file
		w = io.MultiWriter(stdout, file)
		// Color codes do not belong in files.
		tty = false
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		if tty {
			h = NewColorTextHandler(w, opts)
		} else {
			h = slog.NewTextHandler(w, opts)
		}
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(h).With("service", "rewind"), closer, nil
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
