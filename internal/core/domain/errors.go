package domain

import (
	"errors"
	"fmt"
)

// DomainError is a business error carrying a stable code of the form
// TN-<AREA>-<NNNN>. The last four digits follow HTTP status semantics.
type DomainError struct {
	Code    string // e.g. "TN-NONC-4001"
	Message string
	Details string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a DomainError.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy of the error with details attached.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// Detailf is WithDetails with formatting.
func (e *DomainError) Detailf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// IsDomainError reports whether err is a DomainError, optionally with the
// given code. An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return code == "" || de.Code == code
}

// GetErrorCode returns the DomainError code of err, or "".
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Nonce errors (NONC).
var (
	ErrInvalidLength  = NewDomainError("TN-NONC-4001", "invalid nonce length")
	ErrLengthTooLarge = NewDomainError("TN-NONC-4002", "nonce length exceeds limit")
	ErrInvalidCount   = NewDomainError("TN-NONC-4003", "invalid nonce count")
	ErrBatchTooLarge  = NewDomainError("TN-NONC-4004", "batch size exceeds limit")
	ErrBadRequest     = NewDomainError("TN-NONC-4000", "bad request")
)

// Authentication errors (AUTH).
var (
	ErrAuthRequired = NewDomainError("TN-AUTH-4010", "api key not provided")
	ErrAuthInvalid  = NewDomainError("TN-AUTH-4011", "invalid api key")
)

// System errors (SYS).
var (
	ErrRateLimited        = NewDomainError("TN-SYS-4290", "too many requests")
	ErrInternal           = NewDomainError("TN-SYS-5000", "internal server error")
	ErrStorage            = NewDomainError("TN-SYS-5001", "storage error")
	ErrServiceUnavailable = NewDomainError("TN-SYS-5030", "service unavailable")
)
