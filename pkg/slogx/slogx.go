package slogx

import (
	"log/slog"
	"os"
	"strings"
)

// Config selects the handler and the base attributes stamped on every record.
type Config struct {
	Service string
	Version string
	Env     string
	Level   string // "debug", "info", "warn", "error"; anything else means info
	Format  string // "text" or "json"; anything else means json
}

// New builds the process logger and installs it as the slog default, so
// code logging through slog.Default shares the same handler and base attrs.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(
		"service", cfg.Service,
		"version", cfg.Version,
		"env", cfg.Env,
	)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
