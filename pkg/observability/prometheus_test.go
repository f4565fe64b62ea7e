package observability_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/NWuSunset/Red-Black-Tree/pkg/observability"
)

func scrape(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, observability.MetricsPath, http.NoBody))

	return rec
}

func TestPrometheusProvider_ServesTreeMetrics(t *testing.T) {
	t.Parallel()

	mp, handler, err := observability.NewPrometheusProvider()
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	metrics, err := observability.NewTreeMetrics(mp.Meter(observability.InstrumentationName))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordOp(ctx, "insert", observability.StatusOK, time.Microsecond)
	metrics.AddKeys(ctx, 4)
	metrics.AddRotations(ctx, 2)

	rec := scrape(t, handler)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	body := rec.Body.String()
	assert.Contains(t, body, "target_info")
	assert.Contains(t, body, "rbtree_operations")
	assert.Contains(t, body, `op="insert"`)
	assert.Contains(t, body, "rbtree_keys")
	assert.Contains(t, body, "rbtree_rotations")
}

func TestPrometheusProvider_IndependentRegistries(t *testing.T) {
	t.Parallel()

	first, firstHandler, err := observability.NewPrometheusProvider()
	require.NoError(t, err)

	second, _, err := observability.NewPrometheusProvider()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, first.Shutdown(context.Background()))
		require.NoError(t, second.Shutdown(context.Background()))
	})

	metrics, err := observability.NewTreeMetrics(second.Meter("test"))
	require.NoError(t, err)
	metrics.AddKeys(context.Background(), 1)

	assert.NotContains(t, scrape(t, firstHandler).Body.String(), "rbtree_keys")
}

func TestMetricsServer_TracesScrapes(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	_, handler, err := observability.NewPrometheusProvider()
	require.NoError(t, err)

	server := observability.NewMetricsServer("127.0.0.1:0", handler, tp.Tracer("test"))
	assert.Equal(t, "127.0.0.1:0", server.Addr)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + observability.MetricsPath) //nolint:noctx // test helper.
	require.NoError(t, err)

	_, err = io.Copy(io.Discard, resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool { return len(exporter.GetSpans()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "GET /metrics", exporter.GetSpans()[0].Name)
}
