package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NWuSunset/Red-Black-Tree/pkg/observability"
)

// Config is the top-level rbtree configuration.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Logging       LoggingConfig       `mapstructure:"logging"`
	Render        RenderConfig        `mapstructure:"render"`
	Arena         ArenaConfig         `mapstructure:"arena"`
	Shell         ShellConfig         `mapstructure:"shell"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Report        ReportConfig        `mapstructure:"report"`
}

// LoggingConfig controls the stderr logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RenderConfig controls how trees are drawn.
type RenderConfig struct {
	Style  string `mapstructure:"style"`
	Color  bool   `mapstructure:"color"`
	Indent int    `mapstructure:"indent"`
}

// ArenaConfig holds node arena knobs.
type ArenaConfig struct {
	HibernationThreshold int `mapstructure:"hibernation_threshold"`
}

// ShellConfig holds interactive session settings.
type ShellConfig struct {
	Prompt string `mapstructure:"prompt"`
	// Echo repeats each input line, which keeps transcripts readable when stdin is piped.
	Echo bool `mapstructure:"echo"`
}

// ObservabilityConfig holds telemetry export settings.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
}

// ReportConfig selects the validation report encoding.
type ReportConfig struct {
	Format string `mapstructure:"format"`
}

// Sentinel errors for configuration validation.
var (
	ErrInvalidLogLevel             = errors.New("logging.level must be debug, info, warn or error")
	ErrInvalidLogFormat            = errors.New("logging.format must be text or json")
	ErrInvalidRenderStyle          = errors.New("render.style must be sideways or branches")
	ErrInvalidRenderIndent         = errors.New("render.indent must be positive")
	ErrInvalidReportFormat         = errors.New("report.format must be table, json or yaml")
	ErrInvalidHibernationThreshold = errors.New("arena.hibernation_threshold must be non-negative")
	ErrInvalidSampleRatio          = errors.New("observability.sample_ratio must be between 0 and 1")
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if _, ok := logLevels[strings.ToLower(c.Logging.Level)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	switch c.Render.Style {
	case StyleSideways, StyleBranches:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRenderStyle, c.Render.Style)
	}

	if c.Render.Indent <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRenderIndent, c.Render.Indent)
	}

	switch c.Report.Format {
	case ReportTable, ReportJSON, ReportYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidReportFormat, c.Report.Format)
	}

	if c.Arena.HibernationThreshold < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHibernationThreshold, c.Arena.HibernationThreshold)
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Observability.SampleRatio)
	}

	return nil
}

// LogLevel returns the slog level for Logging.Level. Call Validate first.
func (c *Config) LogLevel() slog.Level {
	return logLevels[strings.ToLower(c.Logging.Level)]
}

// Telemetry converts the observability section into an observability.Config.
func (c *Config) Telemetry(mode observability.AppMode, version string) observability.Config {
	cfg := observability.DefaultConfig()
	cfg.Mode = mode
	cfg.ServiceVersion = version
	cfg.Environment = c.Observability.Environment
	cfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	cfg.OTLPInsecure = c.Observability.OTLPInsecure
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	cfg.SampleRatio = c.Observability.SampleRatio
	cfg.LogLevel = c.LogLevel()
	cfg.LogJSON = strings.EqualFold(c.Logging.Format, LogFormatJSON)

	return cfg
}
