// Package logging builds the service's structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/jonathan/agency-ats/internal/config"
)

// NewLogger returns a JSON logger writing to stdout at the named level.
// Unknown levels fall back to info.
func NewLogger(level string) *slog.Logger {
	return New(os.Stdout, level)
}

// New returns a JSON logger writing to w.
func New(w io.Writer, level string) *slog.Logger {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
