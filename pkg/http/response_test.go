package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "calbook/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteError(rec, apperrors.NotFoundWithID("Booking", "abc")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Booking not found", body.Error)
	assert.Equal(t, apperrors.CodeNotFound, body.Code)
	assert.Equal(t, "abc", body.Details["id"])
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteError(rec, errors.New("connection refused 10.0.0.3:27017")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestWriteCount(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteCount(rec, 7))

	assert.JSONEq(t, `{"data":{"count":7}}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "x", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
	err := DecodeJSON(req, &dst)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.AsAppError(err).Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	err = DecodeJSON(req, &dst)
	require.Error(t, err)
	assert.Equal(t, "Request body is required", apperrors.AsAppError(err).Message)
}

func TestQueryTime(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?start=2025-01-02T10:00:00Z&bad=yesterday", nil)

	got, err := QueryTime(req, "start")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2025, got.Year())

	missing, err := QueryTime(req, "end")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = QueryTime(req, "bad")
	assert.Error(t, err)
}

func TestQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?seats=true&bad=maybe", nil)

	v, err := QueryBool(req, "seats")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = QueryBool(req, "missing")
	require.NoError(t, err)
	assert.False(t, v)

	_, err = QueryBool(req, "bad")
	assert.Error(t, err)
}
