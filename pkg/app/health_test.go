package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"calbook/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("down") }

func serveReady(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()
	router := httprouter.New()
	h.RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestHealth(t *testing.T) {
	router := httprouter.New()
	NewHealthHandler(PingerFunc(fail), nil, logger.Discard()).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		database   Pinger
		cache      Pinger
		wantStatus int
		want       HealthResponse
	}{
		{"all good", PingerFunc(ok), PingerFunc(ok), http.StatusOK, HealthResponse{Status: "ready", Database: "ok", Cache: "ok"}},
		{"no cache configured", PingerFunc(ok), nil, http.StatusOK, HealthResponse{Status: "ready", Database: "ok"}},
		{"cache down degrades", PingerFunc(ok), PingerFunc(fail), http.StatusOK, HealthResponse{Status: "ready", Database: "ok", Cache: "degraded"}},
		{"database down", PingerFunc(fail), nil, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := serveReady(t, NewHealthHandler(tt.database, tt.cache, logger.Discard()))
			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.want, resp)
		})
	}
}
