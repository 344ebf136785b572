package models

import "errors"

var (
	// ErrValidation is returned when required input is missing or malformed
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced product does not exist
	ErrNotFound = errors.New("product not found")

	// ErrExtraction is returned when the page could not be fetched or no price rule matched
	ErrExtraction = errors.New("could not extract price")
)

// UserError carries a message that is safe to show to API clients while
// still matching its sentinel with errors.Is
type UserError struct {
	Kind    error
	Message string
}

func NewUserError(kind error, message string) *UserError {
	return &UserError{Kind: kind, Message: message}
}

func (e *UserError) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *UserError) Unwrap() error {
	return e.Kind
}
