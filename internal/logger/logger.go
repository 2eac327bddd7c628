// =============================================================================
// Product Feed - Logger
// =============================================================================
//
// Builds the structured logger used by the CLI and the conversion pipeline.
// Library packages never log; they return errors to the pipeline, which logs
// them here.
//
// OPTIONS:
//   Level   debug | info | warn | error
//   Format  text | json
//   File    append to this file instead of stderr
//
// =============================================================================

package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options selects level, format and destination.
type Options struct {
	Level  string
	Format string
	File   string
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// ValidFormat reports whether name is a supported output format.
func ValidFormat(name string) bool {
	switch strings.ToLower(name) {
	case "", "text", "json":
		return true
	}
	return false
}

// New builds a logger writing to opts.File, or to stderr when no file is
// set. The returned close function releases the file and is never nil.
func New(opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if !ValidFormat(opts.Format) {
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	var out io.Writer = os.Stderr
	closeFn := func() error { return nil }
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}

	return NewWriter(out, level, opts.Format), closeFn, nil
}

// NewWriter builds a logger on an arbitrary writer.
func NewWriter(w io.Writer, level slog.Level, format string) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}
