package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into the API's response taxonomy. Every
// handler translates errors through StatusCode exactly once; there is
// no per-handler status mapping.
type Kind int

const (
	// KindValidation covers malformed input: bad email syntax, missing
	// required fields, non-integer path ids, empty updates.
	KindValidation Kind = iota
	// KindNotFound covers a missing id, including an already
	// soft-deleted id on the delete endpoint.
	KindNotFound
	// KindConflict covers unique-email violations on create and update.
	KindConflict
	// KindInternal covers any other storage or unexpected failure. The
	// underlying message is passed through to the caller verbatim.
	KindInternal
)

// Error carries a taxonomy kind alongside a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds a Bad-Request error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a Not-Found error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a Conflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure. The wrapped error's text ends
// up in the response body unredacted, matching the API's deliberate
// transparency on server-side failures.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}

// KindOf extracts the taxonomy kind, defaulting to KindInternal for
// errors that did not originate from this package.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// StatusCode maps an error to its HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the caller-facing message for an error.
func Detail(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
