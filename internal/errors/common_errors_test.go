package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "decode error type", errType: ErrTypeDecode, expected: "DECODE"},
		{name: "malformed layout error type", errType: ErrTypeMalformedLayout, expected: "MALFORMED_LAYOUT"},
		{name: "index out of range error type", errType: ErrTypeIndexOutOfRange, expected: "INDEX_OUT_OF_RANGE"},
		{name: "export error type", errType: ErrTypeExport, expected: "EXPORT"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeMalformedLayout,
				Message: "no header row found",
			},
			wantMessage: "[MALFORMED_LAYOUT] no header row found",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeDecode,
				Message: "cannot decode as utf-16",
				Cause:   fmt.Errorf("odd byte count"),
			},
			wantMessage: "[DECODE] cannot decode as utf-16: odd byte count",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type: ErrTypeValidation,
			},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewExportError("write output.csv", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, NewMalformedLayoutError("x").Unwrap())
}

func TestAppError_IsMatchesByType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   error
		expected bool
	}{
		{
			name:     "decode matches decode sentinel",
			err:      NewDecodeError("bad bytes", nil),
			target:   ErrDecode,
			expected: true,
		},
		{
			name:     "malformed layout matches through fmt wrapping",
			err:      fmt.Errorf("parse data.csv: %w", NewMalformedLayoutError("no header")),
			target:   ErrMalformedLayout,
			expected: true,
		},
		{
			name:     "index out of range does not match export",
			err:      NewIndexOutOfRangeError(3, 2),
			target:   ErrExport,
			expected: false,
		},
		{
			name:     "plain error does not match",
			err:      errors.New("boom"),
			target:   ErrDecode,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errors.Is(tt.err, tt.target))
		})
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeStorage, Message: "write failed"}
	err.WithContext("path", "out.xlsx").WithContext("attempt", 1)

	require.NotNil(t, err.Context)
	assert.Equal(t, "out.xlsx", err.Context["path"])
	assert.Equal(t, 1, err.Context["attempt"])
}

func TestNewIndexOutOfRangeError(t *testing.T) {
	err := NewIndexOutOfRangeError(5, 2)

	assert.Equal(t, ErrTypeIndexOutOfRange, err.Type)
	assert.Contains(t, err.Message, "scan index 5")
	assert.Equal(t, 5, err.Context["index"])
	assert.Equal(t, 2, err.Context["scan_count"])
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "plain error", err: errors.New("x"), expected: ""},
		{name: "direct app error", err: NewConfigError("bad", nil), expected: ErrTypeConfig},
		{name: "wrapped app error", err: fmt.Errorf("ctx: %w", NewExportError("x", nil)), expected: ErrTypeExport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TypeOf(tt.err))
		})
	}
}
