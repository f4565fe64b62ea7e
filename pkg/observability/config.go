// Package observability wires log/slog, OpenTelemetry tracing and metrics,
// and the Prometheus scrape endpoint for the rbtree binary.
package observability

import "log/slog"

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI is a one-shot command such as build or check.
	ModeCLI AppMode = "cli"
	// ModeShell is the interactive command session.
	ModeShell AppMode = "shell"
)

const (
	defaultServiceName        = "rbtree"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "dev", "ci").
	Environment string

	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export and the providers become no-op.
	OTLPEndpoint string

	// OTLPHeaders are extra gRPC metadata headers for the OTLP exporters.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the root trace sampling ratio. Zero samples everything.
	SampleRatio float64

	LogLevel slog.Level

	// LogJSON switches the stderr handler from text to JSON.
	LogJSON bool

	// ShutdownTimeoutSec bounds the flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
