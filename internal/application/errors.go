package application

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInactive          = errors.New("product is not available")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAdapterFailure    = errors.New("adapter failure")
	ErrConflict          = errors.New("concurrent modification")
	ErrRepository        = errors.New("repository failure")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field violation found in a command.
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

// Add records a violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns e when it holds violations, nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func Invalid(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// ItemError names the line item a business rule rejected.
type ItemError struct {
	ProductID string
	Name      string
	Err       error
}

func (e *ItemError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err, e.Name, e.ProductID)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.ProductID)
}

func (e *ItemError) Unwrap() error { return e.Err }

// AdapterError carries the message reported by an external collaborator.
type AdapterError struct {
	Adapter string
	Reason  string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Adapter, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Adapter, e.Err)
	}
	return e.Adapter + ": failed"
}

func (e *AdapterError) Is(target error) bool { return target == ErrAdapterFailure }

func (e *AdapterError) Unwrap() error { return e.Err }

func RepositoryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
