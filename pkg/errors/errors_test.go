package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   NotFound("Booking"),
			expected: "NOT_FOUND: Booking not found",
		},
		{
			name:     "with underlying error",
			appErr:   Internal("internal error", errors.New("connection reset")),
			expected: "INTERNAL_ERROR: internal error (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Redis"), CodeUnavailable, http.StatusServiceUnavailable},
		{"too many", TooManyRequests("slow down"), CodeTooManyRequests, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode())
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking", "65f0c0ffee")

	assert.Equal(t, "Booking not found", err.Message)
	assert.Equal(t, "65f0c0ffee", err.Details["id"])
	assert.Equal(t, "Booking", err.Details["resource"])
}

func TestStatusCode_DefaultsToInternal(t *testing.T) {
	err := &AppError{Code: "CUSTOM"}
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("driver failure")
	appErr := Internal("wrapped", cause)

	assert.ErrorIs(t, appErr, cause)
}

func TestIsAppError_SeesThroughWrapping(t *testing.T) {
	appErr := InvalidInput("bad id")
	wrapped := fmt.Errorf("handler: %w", appErr)

	assert.True(t, IsAppError(wrapped))
	assert.False(t, IsAppError(errors.New("plain")))
	assert.Same(t, appErr, AsAppError(wrapped))
}

func TestAsAppError_WrapsPlainErrors(t *testing.T) {
	plain := errors.New("plain")
	result := AsAppError(plain)

	assert.Equal(t, CodeInternal, result.Code)
	assert.Same(t, plain, result.Err)
}

func TestToJSON(t *testing.T) {
	data := NotFoundWithID("Booking", "42").ToJSON()

	var decoded ErrorResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, CodeNotFound, decoded.Code)
	assert.Equal(t, "Booking not found", decoded.Message)
	assert.Equal(t, "42", decoded.Details["id"])
}
