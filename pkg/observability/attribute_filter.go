package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// allowedPrefixes lists the attribute namespaces exported with spans.
var allowedPrefixes = []string{
	"rbtree.",
	"error.",
	"http.",
	"url.",
}

// blockedKeys never leave the process even under an allowed prefix:
// raw input lines and file paths are user data.
var blockedKeys = map[string]bool{
	"rbtree.input":     true,
	"rbtree.file.path": true,
}

// attributeFilter strips span attributes outside allowedPrefixes before
// handing the span to delegate.
type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	logger   *slog.Logger
}

// NewAttributeFilter wraps delegate with the attribute allow-list. A non-nil
// logger receives a warning for every dropped key.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, logger: logger}
}

func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

// OnEnd hands delegate a view of s with the disallowed attributes removed.
func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, filter: f})
}

func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

func (f *attributeFilter) allowed(key string) bool {
	if key == "error" {
		return true
	}

	if !blockedKeys[key] {
		for _, prefix := range allowedPrefixes {
			if strings.HasPrefix(key, prefix) {
				return true
			}
		}
	}

	if f.logger != nil {
		f.logger.Warn("span attribute dropped", "key", key)
	}

	return false
}

type filteredSpan struct {
	sdktrace.ReadOnlySpan

	filter *attributeFilter
}

func (s *filteredSpan) Attributes() []attribute.KeyValue {
	all := s.ReadOnlySpan.Attributes()
	kept := make([]attribute.KeyValue, 0, len(all))

	for _, kv := range all {
		if s.filter.allowed(string(kv.Key)) {
			kept = append(kept, kv)
		}
	}

	return kept
}
