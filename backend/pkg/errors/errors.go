package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeStore represents document store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeRemote represents remote text endpoint errors
	ErrorTypeRemote ErrorType = "remote"
	// ErrorTypeIngest represents errors while pulling text from a source
	ErrorTypeIngest ErrorType = "ingest"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Store Errors

// ErrStoreConnectionFailed is returned when a document store cannot be reached
type ErrStoreConnectionFailed struct {
	*BaseError
	Backend string
	URI     string
}

func NewStoreConnectionFailed(backend, uri string, err error) *ErrStoreConnectionFailed {
	return &ErrStoreConnectionFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("failed to connect to %s store: %s", backend, uri), err),
		Backend:   backend,
		URI:       uri,
	}
}

// ErrStoreReadFailed is returned when documents cannot be read from a collection
type ErrStoreReadFailed struct {
	*BaseError
	Collection string
}

func NewStoreReadFailed(collection string, err error) *ErrStoreReadFailed {
	return &ErrStoreReadFailed{
		BaseError:  NewBaseError(ErrorTypeStore, fmt.Sprintf("failed to read collection: %s", collection), err),
		Collection: collection,
	}
}

// ErrStoreWriteFailed is returned when a snapshot write does not commit.
// Collection is empty when the failure is not tied to one collection.
type ErrStoreWriteFailed struct {
	*BaseError
	Collection string
}

func NewStoreWriteFailed(collection string, err error) *ErrStoreWriteFailed {
	msg := "failed to write snapshot"
	if collection != "" {
		msg = fmt.Sprintf("failed to write collection: %s", collection)
	}
	return &ErrStoreWriteFailed{
		BaseError:  NewBaseError(ErrorTypeStore, msg, err),
		Collection: collection,
	}
}

// Remote Errors

// ErrRemoteCallFailed records why the remote text endpoint gave up
type ErrRemoteCallFailed struct {
	*BaseError
	Model     string
	Attempts  int
	Retryable bool
}

func NewRemoteCallFailed(model string, attempts int, retryable bool, err error) *ErrRemoteCallFailed {
	return &ErrRemoteCallFailed{
		BaseError: NewBaseError(ErrorTypeRemote, fmt.Sprintf("remote call failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
		Retryable: retryable,
	}
}

// Ingest Errors

// ErrIngestFailed is returned when text cannot be pulled from a source
type ErrIngestFailed struct {
	*BaseError
	Source string
}

func NewIngestFailed(source string, err error) *ErrIngestFailed {
	return &ErrIngestFailed{
		BaseError: NewBaseError(ErrorTypeIngest, fmt.Sprintf("failed to ingest: %s", source), err),
		Source:    source,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type typedError interface {
	error
	errorType() ErrorType
}

func (e *BaseError) errorType() ErrorType { return e.Type }

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if te, ok := err.(typedError); ok && te.errorType() == errType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	var remoteErr *ErrRemoteCallFailed
	if errors.As(err, &remoteErr) {
		return remoteErr.Retryable
	}
	// Store failures leave the snapshot untouched, so the whole operation can be retried
	if IsErrorType(err, ErrorTypeStore) {
		return true
	}
	return false
}
