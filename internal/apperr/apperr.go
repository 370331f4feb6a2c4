// Package apperr defines the error taxonomy the HTTP layer maps to status
// codes. Best-effort side effects (notifications, activity log, webhooks)
// never produce these; their failures are logged and swallowed at the call
// site.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindValidation
)

// Error is a classified error with an optional structured payload.
type Error struct {
	Kind          Kind
	Message       string
	BlockingTasks []string // titles of unresolved blocking tasks, set on blocked transitions
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Authentication reports a missing or invalid credential.
func Authentication(msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

// Authorization reports a valid credential with insufficient permission.
func Authorization(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

// NotFound reports an absent entity or a cross-project mismatch.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Validation reports malformed input or a rejected state transition.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Blocked reports a status transition rejected by unresolved blocking
// dependencies, carrying the blocking task titles for the client.
func Blocked(titles []string) *Error {
	return &Error{
		Kind:          KindValidation,
		Message:       "task is blocked by unresolved dependencies",
		BlockingTasks: titles,
	}
}

// Internal wraps an unexpected failure in the primary persistence path.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
