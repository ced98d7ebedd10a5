package errors

import (
	stderrors "errors"
	"net/url"
	"strings"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context for templating
	Cause    error             // Wrapped underlying error
	Hint     string            // Caller-facing navigation target
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil && e.Message != "" {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Kind reports the failure kind of the error code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata for i18n templating.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithHint returns a copy of e whose hint points at route with the error
// code appended as the error query parameter.
func (e *Error) WithHint(route string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Hint = HintFor(route, e.Code)
	return &clone
}

// HintFor appends error=<slug> to route, preserving any existing query.
func HintFor(route string, code Code) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return ""
	}
	separator := "?"
	if strings.Contains(route, "?") {
		separator = "&"
	}
	return route + separator + "error=" + url.QueryEscape(code.Slug())
}

// As returns the first domain error in the chain.
func As(err error) (*Error, bool) {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// CodeOf returns the domain code carried by err, or CodeUnknown.
func CodeOf(err error) Code {
	if domainErr, ok := As(err); ok {
		return domainErr.Code
	}
	return CodeUnknown
}

// HintOf returns the navigation hint carried by err, if any.
func HintOf(err error) string {
	if domainErr, ok := As(err); ok {
		return domainErr.Hint
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
