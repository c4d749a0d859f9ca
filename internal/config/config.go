package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load
const EnvPrefix = "FINSIGHT"

// Config represents the complete application configuration
type Config struct {
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// DataConfig describes where datasets live and how they are loaded
type DataConfig struct {
	Root             string   `yaml:"root" envconfig:"ROOT"`
	AliasFile        string   `yaml:"alias_file" envconfig:"ALIAS_FILE"`
	Encodings        []string `yaml:"encodings" envconfig:"ENCODINGS"`
	CacheCapacity    int      `yaml:"cache_capacity" envconfig:"CACHE_CAPACITY"`
	PreviewRows      int      `yaml:"preview_rows" envconfig:"PREVIEW_ROWS"`
	BatchConcurrency int      `yaml:"batch_concurrency" envconfig:"BATCH_CONCURRENCY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig controls OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Root:             "data",
			AliasFile:        "config/data_mapping.yaml",
			Encodings:        []string{"utf-8", "gbk", "gb2312"},
			CacheCapacity:    0,
			PreviewRows:      5,
			BatchConcurrency: 4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/finsight.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "finsight",
			EnableTracing: false,
			TraceExporter: "none",
			SampleRatio:   1.0,
			EnableMetrics: true,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and FINSIGHT_* environment variables, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if strings.TrimSpace(c.Data.Root) == "" {
		return fmt.Errorf("data root must be set")
	}

	if len(c.Data.Encodings) == 0 {
		return fmt.Errorf("at least one encoding must be configured")
	}
	for i, name := range c.Data.Encodings {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, err := htmlindex.Get(name); err != nil {
			return fmt.Errorf("unknown encoding %q: %w", name, err)
		}
		c.Data.Encodings[i] = name
	}

	if c.Data.CacheCapacity < 0 {
		return fmt.Errorf("cache capacity must not be negative: %d", c.Data.CacheCapacity)
	}
	if c.Data.PreviewRows <= 0 {
		return fmt.Errorf("preview rows must be positive: %d", c.Data.PreviewRows)
	}
	if c.Data.BatchConcurrency <= 0 {
		return fmt.Errorf("batch concurrency must be positive: %d", c.Data.BatchConcurrency)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	switch c.Logging.Output {
	case "stdout", "stderr":
	case "file", "both":
		if c.Logging.FilePath == "" {
			return fmt.Errorf("log file path required for output %q", c.Logging.Output)
		}
	default:
		return fmt.Errorf("invalid log output: %s", c.Logging.Output)
	}

	if c.Telemetry.TraceExporter != "stdout" && c.Telemetry.TraceExporter != "none" {
		return fmt.Errorf("unsupported trace exporter: %s", c.Telemetry.TraceExporter)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("sample ratio must be within [0, 1]: %v", c.Telemetry.SampleRatio)
	}

	return nil
}
