package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// Sentinel errors surfaced to the user as process-level failures
var (
	ErrNoInputFiles = NewAppError(ErrTypeNotFound, "no input files found", nil)
	ErrNoData       = NewAppError(ErrTypeParsing, "no data parsed from any input file", nil)
	ErrOutputLocked = NewAppError(ErrTypeStorage, "output file is locked by another run", nil)
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel AppErrors by type and message so that wrapped
// copies (WithContext, Wrap) still compare equal to the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithContext returns a copy of the error carrying an extra context value.
// Sentinels are never mutated.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := e.copyContext(1)
	ctx[key] = value
	return &AppError{Type: e.Type, Message: e.Message, Cause: e.Cause, Context: ctx}
}

// Wrap returns a copy of the error with cause attached
func (e *AppError) Wrap(cause error) *AppError {
	return &AppError{Type: e.Type, Message: e.Message, Cause: cause, Context: e.copyContext(0)}
}

func (e *AppError) copyContext(extra int) map[string]interface{} {
	ctx := make(map[string]interface{}, len(e.Context)+extra)
	for k, v := range e.Context {
		ctx[k] = v
	}
	return ctx
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or ""
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
