// SPDX-License-Identifier: GPL-3.0-only

package resetflow

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateRequest = errors.New("a password reset request is already waiting for admin approval")
	ErrAlreadyProcessed = errors.New("password reset request has already been processed")
	ErrInvalidCode      = errors.New("verification code is invalid or has not been approved")
	ErrCodeExpired      = fmt.Errorf("%w: verification code has expired", ErrInvalidCode)
	ErrInvalidToken     = errors.New("reset token is invalid or has already been used")
)

// ValidationError reports malformed command input. It matches ErrValidation
// under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
