package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers unknown emails, wrong passwords and inactive accounts
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidResetCode is returned when the reset code does not match
	ErrInvalidResetCode = errors.New("invalid reset code")
	// ErrResetCodeExpired is returned when the reset code matches but its expiry has passed
	ErrResetCodeExpired = errors.New("reset code expired")
	// ErrUnavailable is returned when an optional integration is not configured
	ErrUnavailable = errors.New("service not configured")
)

// ValidationError reports a malformed or missing request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid builds a ValidationError
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failure of an external service
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return e.Service + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Service: service, Err: err}
}
