// Package plberr defines the typed error kinds spec.md §7 enumerates, so
// the daemon entrypoint can choose an exit code or a log level by
// switching on a field instead of matching error text.
package plberr

import (
	"errors"
	"fmt"
)

// Kind identifies which row of spec.md §7's error table an error belongs
// to.
type Kind string

const (
	ConfigMissing     Kind = "ConfigMissing"
	ConfigParse       Kind = "ConfigParse"
	ConfigKey         Kind = "ConfigKey"
	DependencyMissing Kind = "DependencyMissing"
	ApiUnreachable    Kind = "ApiUnreachable"
	DnsFailure        Kind = "DnsFailure"
	TlsFailure        Kind = "TlsFailure"
	AuthFailure       Kind = "AuthFailure"
	MigrationRejected Kind = "MigrationRejected"
	Overprovisioned   Kind = "Overprovisioned"
	InvalidPolicy     Kind = "InvalidPolicy"
)

// Fatal reports whether a Kind belongs to the fatal/exit-2 disposition
// (spec.md §7): config and startup errors, not per-migration failures.
func (k Kind) Fatal() bool {
	switch k {
	case ConfigMissing, ConfigParse, ConfigKey, DependencyMissing,
		ApiUnreachable, DnsFailure, TlsFailure, AuthFailure, InvalidPolicy:
		return true
	default:
		return false
	}
}

// Error is a Kind-tagged error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a Kind-tagged error with no wrapped cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, err error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// As extracts the Kind of err, if it (or something it wraps) is an *Error.
func As(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
