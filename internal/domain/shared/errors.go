package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error for callers that need to decide
// whether to surface, retry or abort.
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindPrecondition ErrorKind = "PRECONDITION"
	KindInternal     ErrorKind = "INTERNAL"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so sentinel values work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Retryable reports whether the caller may recompute and resubmit.
func (e *DomainError) Retryable() bool {
	return e.Kind == KindConflict
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    kindForCode(code),
	}
}

// NewValidationError creates a user-correctable error. Nothing has been written when it is returned.
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindValidation}
}

// NewNotFoundError creates an error for a missing referenced document.
func NewNotFoundError(resource string, id any) *DomainError {
	return &DomainError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %v not found", resource, id),
		Kind:    KindNotFound,
	}
}

// NewConflictError creates a retryable write-conflict error.
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: "CONCURRENCY_CONFLICT", Message: message, Kind: KindConflict}
}

// NewPreconditionError creates an error for an operation rejected by state rules.
func NewPreconditionError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindPrecondition}
}

// IsKind reports whether err wraps a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

func kindForCode(code string) ErrorKind {
	switch code {
	case "NOT_FOUND":
		return KindNotFound
	case "CONCURRENCY_CONFLICT", "ALREADY_EXISTS":
		return KindConflict
	case "INVALID_STATE":
		return KindPrecondition
	case "INTERNAL_ERROR":
		return KindInternal
	default:
		return KindValidation
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
