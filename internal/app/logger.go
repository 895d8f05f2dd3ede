package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/heartmarshall/mastertext/internal/config"
)

// NewLogger builds the run logger from LogConfig and installs it as the slog
// default. "json" emits one object per line for log shippers; anything else
// emits text lines with the source position. Level is debug, info, warn or
// error (case-insensitive) and falls back to info.
//
// Extraction lines carry run_id, table, path and error, plus the per-table
// counters rows, resolved, duplicates, carried_forward and entries.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: strings.EqualFold(cfg.Format, "text"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
