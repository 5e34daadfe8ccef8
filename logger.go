package ics

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger receives non-fatal diagnostics from the engine: an invalid RRULE
// whose recurrence was dropped, an event skipped because a moment failed to
// parse, an unresolved TZID that fell back to the default zone.
// Nothing the engine does depends on these calls; a Logger exists purely for
// observability.
type Logger interface {
	Warnf(format string, args ...any)
}

// NopLogger discards every message. It is the zero-value Logger used when a
// Config is built without WithLogger.
type NopLogger struct{}

func (NopLogger) Warnf(string, ...any) {}

// zerologAdapter backs the default, non-nop Logger with zerolog, matching
// the console-writer setup used for structured logging elsewhere in this
// codebase's lineage.
type zerologAdapter struct {
	l zerolog.Logger
}

// NewZerologLogger returns a Logger that writes warnings to os.Stderr as
// structured, timestamped log lines.
func NewZerologLogger() Logger {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return &zerologAdapter{l: l}
}

func (z *zerologAdapter) Warnf(format string, args ...any) {
	z.l.Warn().Msgf(format, args...)
}
