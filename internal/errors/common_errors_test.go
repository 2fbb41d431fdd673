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
		{name: "input error type", errType: ErrTypeInput, expected: "INPUT"},
		{name: "aggregation error type", errType: ErrTypeAggregation, expected: "AGGREGATION"},
		{name: "rendering error type", errType: ErrTypeRendering, expected: "RENDERING"},
		{name: "template error type", errType: ErrTypeTemplate, expected: "TEMPLATE"},
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
				Type:    ErrTypeTemplate,
				Message: "template has unmapped placeholders",
			},
			wantMessage: "[TEMPLATE] template has unmapped placeholders",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeInput,
				Message: "failed to load readings",
				Cause:   fmt.Errorf("open CALIDAD.xlsx: no such file"),
			},
			wantMessage: "[INPUT] failed to load readings: open CALIDAD.xlsx: no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewAggregationError("correlation undefined", ErrNoData)

	assert.True(t, errors.Is(err, ErrNoData))
	assert.Equal(t, ErrNoData, err.Unwrap())

	wrapped := fmt.Errorf("aggregate step: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeAggregation, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewInputError("unparseable value", nil).
		WithContext("row", 12).
		WithContext("column", "PM10")

	assert.Equal(t, 12, err.Context["row"])
	assert.Equal(t, "PM10", err.Context["column"])

	bare := &AppError{Type: ErrTypeInput}
	bare.WithContext("k", "v")
	assert.Equal(t, "v", bare.Context["k"])
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  *AppError
		want ErrorType
	}{
		{name: "input", err: NewInputError("m", cause), want: ErrTypeInput},
		{name: "aggregation", err: NewAggregationError("m", cause), want: ErrTypeAggregation},
		{name: "rendering", err: NewRenderingError("m", cause), want: ErrTypeRendering},
		{name: "template", err: NewTemplateError("m", cause), want: ErrTypeTemplate},
		{name: "storage", err: NewStorageError("m", cause), want: ErrTypeStorage},
		{name: "config", err: NewConfigError("m", cause), want: ErrTypeConfig},
		{name: "validation", err: NewAppValidationError("m"), want: ErrTypeValidation},
		{name: "not found", err: NewNotFoundError("template"), want: ErrTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
			assert.NotNil(t, tt.err.Context)
		})
	}

	assert.Equal(t, "template not found", NewNotFoundError("template").Message)
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeRendering, TypeOf(fmt.Errorf("chart: %w", NewRenderingError("save", nil))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))

	assert.True(t, IsType(NewTemplateError("x", nil), ErrTypeTemplate))
	assert.False(t, IsType(NewTemplateError("x", nil), ErrTypeInput))
}
