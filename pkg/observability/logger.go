package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
)

// TracingHandler is an [slog.Handler] that adds trace_id and span_id from the
// active span to every record. service, mode and env are attached once at
// construction so groups opened later do not nest them.
type TracingHandler struct {
	next slog.Handler
}

// NewTracingHandler wraps next. An empty env is omitted.
func NewTracingHandler(next slog.Handler, service, env string, mode AppMode) *TracingHandler {
	attrs := make([]slog.Attr, 0, 3) //nolint:mnd // service, mode, env.
	attrs = append(attrs, slog.String(attrService, service), slog.String(attrMode, string(mode)))

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	return &TracingHandler{next: next.WithAttrs(attrs)}
}

// Enabled reports whether the wrapped handler accepts level.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle adds the span identifiers, if any, and forwards the record.
func (h *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	if err := h.next.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (h *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{next: h.next.WithGroup(name)}
}
