package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler used for DefaultLogger output.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Spec configures the global logger. There is one logical component in
// this pipeline, so unlike a multi-service logging setup there is no
// per-module level table here: every log line shares one level and one
// set of common fields.
type Spec struct {
	Level        string            // "debug", "info", "warn", "error"
	Format       Format            // FormatJSON or FormatText
	CommonFields map[string]string // attached to every record, e.g. service/env
}

// ParseLevel converts a level name to a slog.Level, defaulting to Info
// for an empty or unrecognized value.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Configure rebuilds DefaultLogger from spec, replacing whatever handler
// is currently installed. Call it once at startup after config.Load has
// parsed the environment.
func Configure(spec Spec) {
	level := ParseLevel(spec.Level)

	var commonFields []slog.Attr
	for k, v := range spec.CommonFields {
		commonFields = append(commonFields, slog.String(k, v))
	}

	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if spec.Format == FormatJSON {
		base = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		base = slog.NewTextHandler(os.Stderr, opts)
	}

	DefaultLogger = slog.New(NewContextHandler(base, commonFields...))
	slog.SetDefault(DefaultLogger)
}
