// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger that writes human-readable lines in dev and JSON
// everywhere else.  Unknown level names fall back to info.
func New(env, level string) zerolog.Logger {
	return NewWithWriter(env, level, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(env, level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	out := w
	if env == "dev" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "club-event-engine").
		Logger()
}
