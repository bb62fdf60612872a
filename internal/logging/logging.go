// Package logging configures the process-wide zerolog logger, in the
// style cmd/pulse and its sibling binaries set theirs up in
// rcourtman/pulse-go-rewrite (log.Logger = log.Output(...), a parsed
// level, a timestamped console writer).
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Verbosity is the spec's [service] log_verbosity value (spec.md §6):
// CRITICAL by default. It maps onto zerolog levels; the intermediate
// syslog-style names are accepted for operator familiarity.
type Verbosity string

const (
	Critical Verbosity = "CRITICAL"
	Error    Verbosity = "ERROR"
	Warning  Verbosity = "WARNING"
	Info     Verbosity = "INFO"
	Debug    Verbosity = "DEBUG"
)

func (v Verbosity) zerologLevel() zerolog.Level {
	switch v {
	case Critical, Error:
		return zerolog.ErrorLevel
	case Warning:
		return zerolog.WarnLevel
	case Info:
		return zerolog.InfoLevel
	case Debug:
		return zerolog.DebugLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Init configures the global zerolog logger. When stderr is a terminal it
// uses zerolog's human-readable ConsoleWriter, matching the teacher's
// dependency on golang.org/x/term for TTY detection; otherwise it emits
// plain JSON lines, suited to being captured by an init system.
func Init(verbosity Verbosity) {
	level := verbosity.zerologLevel()
	zerolog.SetGlobalLevel(level)

	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// KindFields is the set of structured fields attached to a log line that
// reports a plberr.Kind-tagged failure; kept here (rather than in
// plberr) so the error package stays logging-agnostic.
func KindFields(kind string) map[string]interface{} {
	return map[string]interface{}{"error_kind": kind}
}
