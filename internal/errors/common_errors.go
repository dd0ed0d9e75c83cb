package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeDecode          ErrorType = "DECODE"
	ErrTypeMalformedLayout ErrorType = "MALFORMED_LAYOUT"
	ErrTypeIndexOutOfRange ErrorType = "INDEX_OUT_OF_RANGE"
	ErrTypeExport          ErrorType = "EXPORT"
	ErrTypeStorage         ErrorType = "STORAGE"
	ErrTypeValidation      ErrorType = "VALIDATION"
	ErrTypeNotFound        ErrorType = "NOT_FOUND"
	ErrTypeConfig          ErrorType = "CONFIG"
)

// Sentinels for errors.Is. Any AppError of the same type matches.
var (
	ErrDecode          = &AppError{Type: ErrTypeDecode, Message: "cannot decode input"}
	ErrMalformedLayout = &AppError{Type: ErrTypeMalformedLayout, Message: "malformed layout"}
	ErrIndexOutOfRange = &AppError{Type: ErrTypeIndexOutOfRange, Message: "index out of range"}
	ErrExport          = &AppError{Type: ErrTypeExport, Message: "export failed"}
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

// Is reports whether target is an AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
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

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Helper functions for common error types

// NewDecodeError creates an error for input that cannot be decoded.
func NewDecodeError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDecode, message, cause)
}

// NewMalformedLayoutError creates an error for input whose layout was not recognised.
func NewMalformedLayoutError(message string) *AppError {
	return NewAppError(ErrTypeMalformedLayout, message, nil)
}

// NewIndexOutOfRangeError creates an error for a scan index that does not exist.
func NewIndexOutOfRangeError(index, count int) *AppError {
	return NewAppError(ErrTypeIndexOutOfRange,
		fmt.Sprintf("scan index %d out of range (document has %d scans)", index, count), nil).
		WithContext("index", index).
		WithContext("scan_count", count)
}

// NewExportError creates an export-related error
func NewExportError(message string, cause error) *AppError {
	return NewAppError(ErrTypeExport, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
