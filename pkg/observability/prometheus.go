package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// MetricsPath is where the scrape handler is mounted.
const MetricsPath = "/metrics"

const metricsReadHeaderTimeout = 5 * time.Second

// NewPrometheusProvider returns a MeterProvider whose instruments are exposed
// by the returned scrape handler. Every call uses its own registry, so several
// providers can coexist in one process.
func NewPrometheusProvider() (*sdkmetric.MeterProvider, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return mp, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// NewMetricsServer serves handler at MetricsPath on addr, one span per
// scrape, plus the HealthPath and ReadyPath checks.
func NewMetricsServer(addr string, handler http.Handler, tracer trace.Tracer, checks ...ReadyCheck) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, HTTPMiddleware(tracer, handler))
	mux.Handle(HealthPath, HealthHandler())
	mux.Handle(ReadyPath, ReadyHandler(checks...))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}
}
