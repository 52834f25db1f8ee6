package model

import (
	"errors"
	"fmt"
)

// Таксономия ошибок домена. Конкретные ошибки оборачивают эти sentinel'ы,
// поэтому вызывающий код проверяет их через errors.Is.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
)

// ValidationError describes the violated constraint on a single field.
type ValidationError struct {
	Field string
	Rule  string
}

func NewValidationError(field, rule string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Rule)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TransitionError is returned when a status change is not an edge of the booking graph.
type TransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// IsHidden reports whether the caller must be answered as if the record did not exist.
func IsHidden(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden)
}
