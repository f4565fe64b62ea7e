package observability_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/NWuSunset/Red-Black-Tree/pkg/observability"
)

func getJSON(t *testing.T, handler http.Handler, path string) (int, map[string]string) {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return rec.Code, body
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	code, body := getJSON(t, observability.HealthHandler(), observability.HealthPath)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"status": "ok"}, body)
}

func TestReadyHandler(t *testing.T) {
	t.Parallel()

	pass := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("session closed") }

	tests := []struct {
		name   string
		checks []observability.ReadyCheck
		code   int
		body   map[string]string
	}{
		{"no checks", nil, http.StatusOK, map[string]string{"status": "ok"}},
		{"all pass", []observability.ReadyCheck{pass, pass}, http.StatusOK, map[string]string{"status": "ok"}},
		{
			"one fails", []observability.ReadyCheck{pass, fail}, http.StatusServiceUnavailable,
			map[string]string{"status": "unavailable", "reason": "session closed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, body := getJSON(t, observability.ReadyHandler(tt.checks...), observability.ReadyPath)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestMetricsServer_MountsHealthChecks(t *testing.T) {
	t.Parallel()

	notReady := func(context.Context) error { return errors.New("starting") }
	server := observability.NewMetricsServer("127.0.0.1:0", http.NotFoundHandler(),
		nooptrace.NewTracerProvider().Tracer("test"), notReady)

	code, _ := getJSON(t, server.Handler, observability.HealthPath)
	assert.Equal(t, http.StatusOK, code)

	code, body := getJSON(t, server.Handler, observability.ReadyPath)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "starting", body["reason"])
}
