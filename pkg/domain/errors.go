// Package domain holds error kinds and value types shared by every service
// package. Handlers map these kinds to HTTP status codes in pkg/response.
package domain

import "fmt"

// CurrencyUSD is the only currency the ride service quotes in.
const CurrencyUSD = "USD"

// ValidationError reports input that failed a domain rule.
type ValidationError struct {
	Message string
}

// NewValidationError creates a ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError creates a NotFoundError for the given entity and identifier.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ConflictError reports a concurrent modification.
type ConflictError struct {
	Message string
}

// NewConflictError creates a ConflictError.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func (e *ConflictError) Error() string { return e.Message }

// ForbiddenError reports an authenticated caller acting on something it does not own.
type ForbiddenError struct {
	Message string
}

// NewForbiddenError creates a ForbiddenError.
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func (e *ForbiddenError) Error() string { return e.Message }

// UnauthorizedError reports a missing or rejected credential.
type UnauthorizedError struct {
	Message string
}

// NewUnauthorizedError creates an UnauthorizedError.
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func (e *UnauthorizedError) Error() string { return e.Message }

// InvalidStateError reports a state machine transition that is not allowed.
type InvalidStateError struct {
	From string
	To   string
}

// NewInvalidStateError creates an InvalidStateError.
func NewInvalidStateError(from, to string) *InvalidStateError {
	return &InvalidStateError{From: from, To: to}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}
