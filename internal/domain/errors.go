package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates that the request lacks valid authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates that the request is not allowed for the authenticated user.
	ErrForbidden = errors.New("forbidden")

	// ErrUpstream indicates that an external literature or citation API failed.
	ErrUpstream = errors.New("upstream failure")

	// ErrTimeout indicates that an external call exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrInternalError indicates an internal server error.
	ErrInternalError = errors.New("internal error")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// AlreadyExistsError provides details about a duplicate entity.
type AlreadyExistsError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *AlreadyExistsError) Unwrap() error {
	return ErrAlreadyExists
}

// UpstreamError reports a non-success HTTP response from an external API.
type UpstreamError struct {
	Source     string
	StatusCode int
	Status     string
	Message    string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error (status %d %s)", e.Source, e.StatusCode, e.Status)
	}
	return fmt.Sprintf("%s API error (status %d %s): %s", e.Source, e.StatusCode, e.Status, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// ProtocolError reports an upstream response that is missing expected structure.
type ProtocolError struct {
	Source  string
	Message string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s protocol error: %s", e.Source, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ProtocolError) Unwrap() error {
	return ErrUpstream
}

// TimeoutError reports an external call that exceeded its fixed deadline.
// It matches both ErrTimeout and ErrUpstream.
type TimeoutError struct {
	Source    string
	Operation string
	Timeout   time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s timed out after %s", e.Source, e.Operation, e.Timeout)
}

// Unwrap returns the underlying sentinel errors for use with errors.Is.
func (e *TimeoutError) Unwrap() []error {
	return []error{ErrTimeout, ErrUpstream}
}

// ParseError reports a single literature record that could not be extracted.
// It is logged by the parser and never returned to search callers.
type ParseError struct {
	Index int
	PMID  string
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.PMID != "" {
		return fmt.Sprintf("record %d (pmid %s): %v", e.Index, e.PMID, e.Cause)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(entity, id string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Entity: entity,
		ID:     id,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(source string, statusCode int, status, message string) *UpstreamError {
	return &UpstreamError{
		Source:     source,
		StatusCode: statusCode,
		Status:     status,
		Message:    message,
	}
}

// NewProtocolError creates a new ProtocolError.
func NewProtocolError(source, message string) *ProtocolError {
	return &ProtocolError{
		Source:  source,
		Message: message,
	}
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(source, operation string, timeout time.Duration) *TimeoutError {
	return &TimeoutError{
		Source:    source,
		Operation: operation,
		Timeout:   timeout,
	}
}
