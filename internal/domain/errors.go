package domain

import (
	"errors"
	"strings"
)

var (
	// ErrUpstreamUnavailable is returned when the trivia provider cannot serve a batch.
	ErrUpstreamUnavailable = errors.New("trivia provider unavailable")
	// ErrInvalidInput indicates arguments that make an operation meaningless, such as scoring zero questions.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResultNotFound is returned when a result does not exist or belongs to someone else.
	ErrResultNotFound = errors.New("quiz result not found")
	// ErrUserNotFound indicates the user account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("user already exists with this email")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthRequired indicates a request without a bearer token.
	ErrAuthRequired = errors.New("no token, authorization denied")
	// ErrAuthInvalid indicates a malformed, expired or revoked token.
	ErrAuthInvalid = errors.New("token is not valid")
)

// FieldError describes one rejected field of a request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level errors for a malformed request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
