// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure taxonomy. Callers match with errors.Is;
// the typed errors below unwrap to these.
var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrPreconditionFailed  = errors.New("precondition not met")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrUnsupportedMetric   = errors.New("unsupported metric")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrRemoteService       = errors.New("remote service request failed")
	ErrProgrammingFailed   = errors.New("route programming failed")
	ErrInvalidSegmentID    = errors.New("invalid segment identifier")
	ErrInvalidPrefix       = errors.New("invalid destination prefix")
)

// PreconditionError represents a failed structural precondition with context.
// Structural preconditions abort an entire apply/delete pass before any route
// is attempted, unlike per-route failures which become error results.
type PreconditionError struct {
	Operation    string
	Resource     string
	Precondition string
	Details      string
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("precondition failed for %s on %s: %s", e.Operation, e.Resource, e.Precondition)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

func (e *PreconditionError) Unwrap() error {
	return ErrPreconditionFailed
}

// NewPreconditionError creates a new precondition error
func NewPreconditionError(operation, resource, precondition, details string) *PreconditionError {
	return &PreconditionError{
		Operation:    operation,
		Resource:     resource,
		Precondition: precondition,
		Details:      details,
	}
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddError adds an error message unconditionally
func (v *ValidationBuilder) AddError(message string) *ValidationBuilder {
	v.errors = append(v.errors, message)
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}

// RemoteServiceError represents a non-success response from the path service.
type RemoteServiceError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *RemoteServiceError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request to %s failed with status %d: %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

func (e *RemoteServiceError) Unwrap() error {
	return ErrRemoteService
}

// ProgrammingError represents a backend-reported logical failure, distinct
// from a transport failure reaching the backend.
type ProgrammingError struct {
	Platform string
	Resource string
	Message  string
}

func (e *ProgrammingError) Error() string {
	return fmt.Sprintf("programming %s on %s failed: %s", e.Resource, e.Platform, e.Message)
}

func (e *ProgrammingError) Unwrap() error {
	return ErrProgrammingFailed
}
