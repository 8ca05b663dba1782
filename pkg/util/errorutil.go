package util

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a client-caused 400 error. Message is safe to
// return to the caller verbatim.
func NewValidationError(message string) error {
	return &DomainError{
		Code:       "VALIDATION_FAILED",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUpstreamError wraps a failed upstream call. The caller-facing message is
// always the terse contract string; the cause stays server-side for logging.
func NewUpstreamError(step string, err error) error {
	return &DomainError{
		Code:       "UPSTREAM_FAILED",
		Message:    "Server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        fmt.Errorf("%s: %w", step, err),
	}
}

// ToDomainError converts generic errors to DomainError, defaulting unknown
// failures to an internal error.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "Server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsValidation reports whether the error is client-caused.
func IsValidation(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.HTTPStatus == http.StatusBadRequest
}
