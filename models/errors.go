package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTransport       = "TRANSPORT_FAILED"
	ErrCodeParseMiss       = "PARSE_MISS"
	ErrCodeExhausted       = "EXHAUSTED"
	ErrCodeChallengeFailed = "CHALLENGE_FAILED"
	ErrCodeCanceled        = "CANCELED"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrParseMiss marks an expected element that is absent from a page. It is a
// legitimate negative result, never a transport problem.
var ErrParseMiss = errors.New("expected element not found")

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResolveError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ResolveError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// NewResolveError creates a new ResolveError.
func NewResolveError(code, message string, err error) *ResolveError {
	return &ResolveError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ResolveError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the code of the first ResolveError in err's chain.
// Bare ErrParseMiss maps to ErrCodeParseMiss; anything else is internal.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Code
	}
	if errors.Is(err, ErrParseMiss) {
		return ErrCodeParseMiss
	}
	return ErrCodeInternal
}

// IsChallenge reports whether err stems from a failed anti-automation
// challenge. Such failures point at a systemic block rather than a bad page.
func IsChallenge(err error) bool {
	return CodeOf(err) == ErrCodeChallengeFailed
}

// IsParseMiss reports whether err is a structural parse miss.
func IsParseMiss(err error) bool {
	return errors.Is(err, ErrParseMiss) || CodeOf(err) == ErrCodeParseMiss
}

// AsResolveError returns err as a *ResolveError, wrapping foreign errors
// as internal ones.
func AsResolveError(err error) *ResolveError {
	var re *ResolveError
	if errors.As(err, &re) {
		return re
	}
	return NewResolveError(CodeOf(err), err.Error(), err)
}
