package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singh-Sg/loan-app/internal/presentation/rest"
	"github.com/Singh-Sg/loan-app/pkg/observability"
)

func newMux(t *testing.T, checks map[string]rest.Check) *http.ServeMux {
	t.Helper()
	_, metrics, err := observability.InitMetrics(observability.MetricsConfig{})
	require.NoError(t, err)

	mux := http.NewServeMux()
	rest.NewHealthHandler("servicing", checks, metrics, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(mux)
	return mux
}

func get(mux http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestHealthHandler(t *testing.T) {
	t.Run("liveness", func(t *testing.T) {
		rec, body := get(newMux(t, nil), "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "servicing", body["service"])
	})

	t.Run("ready when all checks pass", func(t *testing.T) {
		mux := newMux(t, map[string]rest.Check{
			"postgres": func(context.Context) error { return nil },
		})
		rec, body := get(mux, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("unavailable when a check fails", func(t *testing.T) {
		mux := newMux(t, map[string]rest.Check{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
		})
		rec, body := get(mux, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		checks, ok := body["checks"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, checks, "redis")
		assert.NotContains(t, checks, "postgres")
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		rec, _ := get(newMux(t, nil), "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
