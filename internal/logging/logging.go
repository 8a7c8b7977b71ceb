// Package logging builds the diagnostic side channel shared by all sinks.
// Sink internals (write failures, purge activity, delivery errors) are
// reported here so they never surface as errors on a logging call.
package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a timestamped zerolog logger writing to w.
// When pretty is true it writes human-readable console output (interactive
// runs); otherwise structured JSON (service deployments).
func New(w io.Writer, pretty bool, level zerolog.Level) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to a
// zerolog.Level. Unknown strings default to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
