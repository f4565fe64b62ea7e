package observability

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// recordingWriter remembers the first status code written.
type recordingWriter struct {
	http.ResponseWriter

	status int
}

func (rw *recordingWriter) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}

	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(buf []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}

	return rw.ResponseWriter.Write(buf) //nolint:wrapcheck // transparent writer.
}

// HTTPMiddleware starts a server span named "METHOD /path" around next,
// continuing any W3C trace context found in the request headers.
func HTTPMiddleware(tracer trace.Tracer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		parent := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))

		ctx, span := tracer.Start(parent, req.Method+" "+req.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(req.Method),
				semconv.URLPath(req.URL.Path),
			),
		)
		defer span.End()

		rw := &recordingWriter{ResponseWriter: w}
		next.ServeHTTP(rw, req.WithContext(ctx))

		if rw.status == 0 {
			rw.status = http.StatusOK
		}

		span.SetAttributes(semconv.HTTPResponseStatusCode(rw.status))

		if rw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rw.status))
		}
	})
}
