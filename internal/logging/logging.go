// Package logging builds the process slog.Logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/wardadevcode/buildwise-backend/internal/config"
)

// New returns a logger writing to w. Format "text" renders a styled console
// log, "json" one JSON object per line.
func New(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	if w == nil {
		w = io.Discard
	}
	level, err := charmLog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler := charmLog.NewWithOptions(w, charmLog.Options{
			Level:           level,
			Prefix:          "buildwise",
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Formatter:       charmLog.TextFormatter,
		})
		return slog.New(handler), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.Level(level)})), nil
	}
	return nil, fmt.Errorf("unknown log format %q", cfg.Format)
}
