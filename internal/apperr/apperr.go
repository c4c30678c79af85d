package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind buckets an error for the hosting retry/observability framework.
type Kind string

const (
	KindValidation Kind = "validation" // bad input, never retried
	KindUpstream   Kind = "upstream"   // remote dependency failure
	KindProvider   Kind = "provider"   // messaging provider rejected the dispatch
	KindRetryable  Kind = "retryable"  // transient, host should retry
)

// Error is the normalized error shape carried across the send pipeline:
// a machine-readable code, an HTTP status for the host's classification,
// and a human-readable message distinct from internal log lines.
type Error struct {
	Kind    Kind
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Message, e.Code, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the host should retry this failure.
func (e *Error) Retryable() bool { return e.Kind == KindRetryable }

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Status: http.StatusBadRequest, Message: message}
}

func Upstream(code, message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Status: http.StatusInternalServerError, Message: message, Err: cause}
}

func Provider(code, message string, status int, cause error) *Error {
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	return &Error{Kind: KindProvider, Code: code, Status: status, Message: message, Err: cause}
}

func Retryable(code, message string, cause error) *Error {
	return &Error{Kind: KindRetryable, Code: code, Status: http.StatusTooManyRequests, Message: message, Err: cause}
}

// StatusOf resolves the HTTP status a handler should answer with.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status > 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// CodeOf returns the machine code, or "internal" for unclassified errors.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return "internal"
}

// IsRetryable reports whether err (or anything it wraps) asks for a retry.
func IsRetryable(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Retryable()
}
