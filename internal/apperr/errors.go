package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the failure categories the
// service distinguishes at its boundaries.
type Kind int

const (
	// Configuration means a required setting or credential is missing,
	// including a missing tenant context on a tenant-scoped path.
	Configuration Kind = iota
	// Validation means the caller supplied a malformed payload.
	Validation
	// NotFound means no row exists for the requested tenant/type.
	NotFound
	// Upstream means an external provider (OAuth, LLM) failed or timed out.
	Upstream
	// Persistence means a database constraint violation or connection failure.
	Persistence
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Upstream:
		return "upstream"
	case Persistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error carries a kind alongside the wrapped cause so handlers can map
// failures to HTTP statuses without string matching.
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

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a kind and message. Returns nil if err is nil.
func Wrap(kind Kind, err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of err, or ok=false when err carries none.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
