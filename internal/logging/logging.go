// Package logging configures log/slog for the recipes CLI.
//
// Logs go to stderr so that model output on stdout stays clean. The level
// comes from the --log-level flag, falling back to the LOG_LEVEL environment
// variable, then info. Debug level adds source locations.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

const envLogLevel = "LOG_LEVEL"

// ParseLogLevel converts a level name (case-insensitive) into a slog.Level.
// Unknown or empty values map to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// levelOrEnv returns level if set, otherwise the LOG_LEVEL environment value.
func levelOrEnv(level string) string {
	if strings.TrimSpace(level) != "" {
		return level
	}
	return os.Getenv(envLogLevel)
}

// NewLogger builds a logger writing to w with module and version attributes.
func NewLogger(w io.Writer, format Format, module, version, level string) *slog.Logger {
	lvl := ParseLogLevel(levelOrEnv(level))
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	}

	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("module", module, "version", version)
}

// SetDefault installs a logger with the given format as the slog default.
func SetDefault(format Format, module, version, level string) {
	slog.SetDefault(NewLogger(os.Stderr, format, module, version, level))
}

// NewLogLogger adapts the default slog logger to a standard library *log.Logger,
// for libraries that only accept one.
func NewLogLogger(level slog.Level) *log.Logger {
	return slog.NewLogLogger(slog.Default().Handler(), level)
}
