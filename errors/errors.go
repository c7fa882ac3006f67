// Package errors provides standardized error handling patterns for CogMesh
// components. It includes error classification, standard error variables, and
// helper functions for consistent error wrapping across the system.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes.
type ErrorClass int

const (
	// ErrorInvalid represents errors due to malformed or out-of-range input:
	// empty identifiers, zero capacities, empty domain sets.
	ErrorInvalid ErrorClass = iota
	// ErrorExists represents duplicate-creation errors: a namespace, swarm,
	// or member that is already registered under the same key.
	ErrorExists
	// ErrorNotFound represents lookups of unknown namespace/channel/swarm/
	// pattern keys.
	ErrorNotFound
	// ErrorInternal represents resource exhaustion or invariant violations in
	// the hosting environment.
	ErrorInternal
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorInvalid:
		return "invalid"
	case ErrorExists:
		return "exists"
	case ErrorNotFound:
		return "not_found"
	case ErrorInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Argument validation errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyDomain     = errors.New("domain name cannot be empty")
	ErrZeroCapacity    = errors.New("capacity must be greater than zero")
	ErrEmptyDomainSet  = errors.New("domain set cannot be empty")
	ErrNilChannel      = errors.New("channel cannot be nil")
	ErrNilMessage      = errors.New("message cannot be nil")

	// Registration errors
	ErrAlreadyExists   = errors.New("already exists")
	ErrDuplicateMember = errors.New("member already present")

	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Lifecycle errors
	ErrAlreadyStarted = errors.New("already started")
	ErrNotStarted     = errors.New("not started")
	ErrShuttingDown   = errors.New("shutting down")

	// Resource errors
	ErrInternal = errors.New("internal error")
)

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsInvalid checks if an error is due to invalid input.
func IsInvalid(err error) bool {
	return classOf(err, ErrorInvalid, ErrInvalidArgument, ErrEmptyDomain,
		ErrZeroCapacity, ErrEmptyDomainSet, ErrNilChannel, ErrNilMessage)
}

// IsExists checks if an error is due to a duplicate registration.
func IsExists(err error) bool {
	return classOf(err, ErrorExists, ErrAlreadyExists, ErrDuplicateMember)
}

// IsNotFound checks if an error is due to an unknown key.
func IsNotFound(err error) bool {
	return classOf(err, ErrorNotFound, ErrNotFound)
}

// IsInternal checks if an error is an internal/resource failure.
func IsInternal(err error) bool {
	return classOf(err, ErrorInternal, ErrInternal)
}

func classOf(err error, class ErrorClass, sentinels ...error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == class
	}

	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Classify returns the error class for an error. Unclassified errors default
// to ErrorInternal so that unexpected failures are never mistaken for bad
// caller input.
func Classify(err error) ErrorClass {
	switch {
	case IsInvalid(err):
		return ErrorInvalid
	case IsExists(err):
		return ErrorExists
	case IsNotFound(err):
		return ErrorNotFound
	default:
		return ErrorInternal
	}
}

// newClassified creates a new classified error.
// This is an internal helper - use the Wrap* functions instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapInvalid wraps an error as invalid-argument with context.
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// WrapExists wraps an error as duplicate-registration with context.
func WrapExists(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorExists, wrappedErr, component, method, wrappedErr.Error())
}

// WrapNotFound wraps an error as unknown-key with context.
func WrapNotFound(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorNotFound, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInternal wraps an error as internal with context.
func WrapInternal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInternal, wrappedErr, component, method, wrappedErr.Error())
}
