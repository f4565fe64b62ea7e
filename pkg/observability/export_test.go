package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// BuildResourceForTest exposes buildResource for tests.
func BuildResourceForTest(cfg Config) (*resource.Resource, error) {
	return buildResource(context.Background(), cfg)
}

// SampledForTest reports whether a root span would be sampled under cfg.
func SampledForTest(cfg Config) bool {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(selectSampler(cfg)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("sampler").Start(context.Background(), "root")
	defer span.End()

	return span.SpanContext().IsSampled()
}
