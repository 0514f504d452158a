// file: internal/janerr/errors.go
package janerr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// BaseError is the common shape for every error janus-go code returns: a
// wire-stable Code, a human Message, an optional wrapped Cause, and a
// Context bag for structured diagnostics.
type BaseError struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the standard error interface.
func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Code, e.Message)
}

// Unwrap enables errors.Is/errors.As to reach the wrapped cause.
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair and returns e for chaining.
func (e *BaseError) WithContext(key string, value any) *BaseError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New constructs a BaseError with a stack-traced cause (cause may be nil).
func New(code Code, message string, cause error) *BaseError {
	var wrapped error
	if cause != nil {
		wrapped = errors.WithStack(cause)
	}
	return &BaseError{Code: code, Message: message, Cause: wrapped}
}

// Is lets errors.Is match two *BaseError by Code, independent of message/cause.
func (e *BaseError) Is(target error) bool {
	var other *BaseError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// Per-code constructors, one for each entry in the wire's code table.

func NewParseError(message string, cause error) *BaseError {
	return New(CodeParseError, message, cause)
}

func NewInvalidRequest(message string, cause error) *BaseError {
	return New(CodeInvalidRequest, message, cause)
}

func NewMethodNotFound(message string, cause error) *BaseError {
	return New(CodeMethodNotFound, message, cause)
}

func NewValidationError(message string, cause error) *BaseError {
	return New(CodeValidationError, message, cause)
}

func NewSecurityError(message string, cause error) *BaseError {
	return New(CodeSecurityViolation, message, cause)
}

func NewServerError(message string, cause error) *BaseError {
	return New(CodeServerError, message, cause)
}

func NewTransportError(message string, cause error) *BaseError {
	return New(CodeTransportError, message, cause)
}

func NewMessageTooLarge(message string, cause error) *BaseError {
	return New(CodeMessageTooLarge, message, cause)
}

func NewTimeoutError(message string, cause error) *BaseError {
	return New(CodeTimeout, message, cause)
}

func NewCancelledError(message string, cause error) *BaseError {
	return New(CodeCancelled, message, cause)
}

func NewInternalError(message string, cause error) *BaseError {
	return New(CodeInternalError, message, cause)
}

// NewManifestError represents a startup-time Manifest load failure. It is
// not part of the wire's RPC-visible code table (failures here are fatal
// before any dispatch loop exists), so it folds to CodeInternalError.
func NewManifestError(message string, cause error) *BaseError {
	return New(CodeInternalError, message, cause)
}

// CodeOf extracts the Code from err if it (or something it wraps) is a
// *BaseError, otherwise returns CodeInternalError.
func CodeOf(err error) Code {
	var be *BaseError
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeInternalError
}
