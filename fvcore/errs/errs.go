// Package errs defines the error kinds shared by the pseudo-time
// integration and block-sparse linear solve layers.
package errs

import (
	"errors"

	"github.com/cpmech/gosl/chk"
)

// Kind classifies a core error.
type Kind int

const (
	// ConfigError marks an invalid enum token, unsupported TVD-RK order,
	// or a non-positive size. Fatal at the driver boundary.
	ConfigError Kind = iota

	// Structural marks an attempted insertion into a frozen sparsity
	// pattern at a slot that does not exist. Fatal at the driver boundary.
	Structural

	// Numerical marks a singular pivot block in ILU(0) or a NaN/Inf found
	// in a residual. Surfaced to the driver, which may allow one more
	// outer attempt before aborting.
	Numerical

	// IterationCap marks an outer or inner iteration cap reached. Not a
	// failure: the driver logs a warning and returns with U left at its
	// best reached state.
	IterationCap
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case Structural:
		return "Structural"
	case Numerical:
		return "Numerical"
	case IterationCap:
		return "IterationCap"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned across the core's driver
// boundary; Kind lets callers branch without string matching.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Msg }

// Is reports whether target has the same Kind, supporting errors.Is.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	// chk.Err formats the message the way the rest of the corpus does;
	// we only borrow its formatting, not its error type.
	return &Error{Kind: kind, Msg: chk.Err(format, args...).Error()}
}

// Config builds a ConfigError.
func Config(format string, args ...interface{}) *Error { return newf(ConfigError, format, args...) }

// Struct builds a Structural error.
func Struct(format string, args ...interface{}) *Error { return newf(Structural, format, args...) }

// Num builds a Numerical error.
func Num(format string, args ...interface{}) *Error { return newf(Numerical, format, args...) }

// Cap builds an IterationCap pseudo-error; drivers treat it as a normal
// return value, never propagating it up as a failure.
func Cap(format string, args ...interface{}) *Error { return newf(IterationCap, format, args...) }

// Of reports the Kind of err, if err is (or wraps) an *Error.
func Of(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Kind, true
}
