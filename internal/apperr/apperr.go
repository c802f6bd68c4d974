// Package apperr is the error taxonomy shared by the services. Handlers map a
// Kind onto an HTTP status; nothing in here knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuthorization
	KindDownstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindDownstream:
		return "downstream"
	default:
		return "unknown"
	}
}

// Error carries a kind, a short machine reason and a human message.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind and reason, so callers can write
// errors.Is(err, apperr.Conflict("duplicate", "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Reason == "" || t.Reason == e.Reason)
}

func newError(kind Kind, reason, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func Validation(reason, format string, args ...interface{}) *Error {
	return newError(KindValidation, reason, format, args...)
}

func NotFound(reason, format string, args ...interface{}) *Error {
	return newError(KindNotFound, reason, format, args...)
}

func Conflict(reason, format string, args ...interface{}) *Error {
	return newError(KindConflict, reason, format, args...)
}

func Forbidden(reason, format string, args ...interface{}) *Error {
	return newError(KindAuthorization, reason, format, args...)
}

// Downstream wraps a failure of a collaborator (store, sink, provider).
func Downstream(reason string, err error) *Error {
	return &Error{Kind: KindDownstream, Reason: reason, Message: reason, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ReasonOf returns the reason of the first *Error in err's chain.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
