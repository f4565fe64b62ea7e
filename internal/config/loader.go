package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName      = ".rbtree"
	configType      = "yaml"
	envPrefix       = "RBTREE"
	envKeySeparator = "_"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// An explicit configPath must exist; otherwise .rbtree.yaml is searched in
// CWD and $HOME and a missing file just means defaults.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Render:  RenderConfig{Style: DefaultRenderStyle, Color: DefaultRenderColor, Indent: DefaultRenderIndent},
		Arena:   ArenaConfig{HibernationThreshold: DefaultHibernationThreshold},
		Shell:   ShellConfig{Prompt: DefaultShellPrompt, Echo: DefaultShellEcho},
		Observability: ObservabilityConfig{
			SampleRatio: DefaultSampleRatio,
		},
		Report: ReportConfig{Format: DefaultReportFormat},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("render.style", DefaultRenderStyle)
	viperCfg.SetDefault("render.color", DefaultRenderColor)
	viperCfg.SetDefault("render.indent", DefaultRenderIndent)

	viperCfg.SetDefault("arena.hibernation_threshold", DefaultHibernationThreshold)

	viperCfg.SetDefault("shell.prompt", DefaultShellPrompt)
	viperCfg.SetDefault("shell.echo", DefaultShellEcho)

	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.metrics_addr", "")

	viperCfg.SetDefault("report.format", DefaultReportFormat)
}
