package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the file nor the environment set a value.
const (
	DefaultLowBoundary   = 30
	DefaultHighBoundary  = 60
	DefaultTimeoutMs     = 30000
	DefaultMaxRetries    = 1
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultTraceExporter = "none"
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DeepSeekAPIKey  string

	Router   RouterConfig
	Delegate DelegateConfig
	Scorer   ScorerConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
	Models   *ModelAliases

	ConfigDir string
}

// FileConfig represents the structure of ~/.taskgate/config.yaml.
// API keys are never read from the file.
type FileConfig struct {
	Router   RouterConfig   `yaml:"router"`
	Delegate DelegateConfig `yaml:"delegate"`
	Scorer   ScorerConfig   `yaml:"scorer"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Models   *ModelAliases  `yaml:"models,omitempty"`
}

// RouterConfig holds the lane boundaries.
type RouterConfig struct {
	LowBoundary  *int `yaml:"low_boundary,omitempty"`
	HighBoundary *int `yaml:"high_boundary,omitempty"`
}

// DelegateConfig selects the remote backend and its retry policy.
type DelegateConfig struct {
	Backend    string `yaml:"backend,omitempty"`
	Model      string `yaml:"model,omitempty"`
	TimeoutMs  int    `yaml:"timeout_ms,omitempty"`
	MaxRetries *int   `yaml:"max_retries,omitempty"`
	BackoffMs  int    `yaml:"backoff_ms,omitempty"`
}

// ScorerConfig overrides the complexity weights. Unset fields keep the
// built-in table.
type ScorerConfig struct {
	TypeWeights map[string]float64 `yaml:"type_weights,omitempty"`
	DefaultType *float64           `yaml:"default_type,omitempty"`
	Keywords    []string           `yaml:"keywords,omitempty"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Exporter string `yaml:"exporter,omitempty"`
}

// Load reads ~/.taskgate/config.yaml, if present, and applies environment
// overrides. Environment variables take precedence over the file.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.yaml")
	fileConfig := &FileConfig{}
	if _, err := os.Stat(path); err == nil {
		fileConfig, err = loadFileConfig(path)
		if err != nil {
			return nil, err
		}
	}

	cfg := build(fileConfig)
	cfg.ConfigDir = configDir
	return cfg, nil
}

// LoadFile reads configuration from an explicit path. A missing file is an error.
func LoadFile(path string) (*Config, error) {
	fileConfig, err := loadFileConfig(path)
	if err != nil {
		return nil, err
	}
	cfg := build(fileConfig)
	cfg.ConfigDir = filepath.Dir(path)
	return cfg, nil
}

// HasBackend returns true if the API key for the given backend is configured.
func (c *Config) HasBackend(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	case "mock":
		return true
	default:
		return false
	}
}

// Model returns the configured delegate model with aliases resolved.
func (c *Config) Model() string {
	return c.Models.Resolve(c.Delegate.Model)
}

func build(fc *FileConfig) *Config {
	cfg := &Config{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		DeepSeekAPIKey:  os.Getenv("DEEPSEEK_API_KEY"),
		Router:          fc.Router,
		Delegate:        fc.Delegate,
		Scorer:          fc.Scorer,
		Log:             fc.Log,
		Metrics:         fc.Metrics,
		Tracing:         fc.Tracing,
		Models:          fc.Models,
	}

	cfg.Delegate.Backend = getEnvOrDefault("TASKGATE_BACKEND", cfg.Delegate.Backend)
	cfg.Delegate.Model = getEnvOrDefault("TASKGATE_MODEL", cfg.Delegate.Model)
	cfg.Delegate.TimeoutMs = getEnvIntOrDefault("TASKGATE_TIMEOUT_MS", cfg.Delegate.TimeoutMs)
	if v, ok := lookupEnvInt("TASKGATE_MAX_RETRIES"); ok {
		cfg.Delegate.MaxRetries = &v
	}
	if v, ok := lookupEnvInt("TASKGATE_LOW_BOUNDARY"); ok {
		cfg.Router.LowBoundary = &v
	}
	if v, ok := lookupEnvInt("TASKGATE_HIGH_BOUNDARY"); ok {
		cfg.Router.HighBoundary = &v
	}
	cfg.Log.Level = getEnvOrDefault("TASKGATE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvOrDefault("TASKGATE_LOG_FORMAT", cfg.Log.Format)
	cfg.Metrics.Addr = getEnvOrDefault("TASKGATE_METRICS_ADDR", cfg.Metrics.Addr)
	cfg.Tracing.Exporter = getEnvOrDefault("TASKGATE_TRACE_EXPORTER", cfg.Tracing.Exporter)

	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Router.LowBoundary == nil {
		v := DefaultLowBoundary
		cfg.Router.LowBoundary = &v
	}
	if cfg.Router.HighBoundary == nil {
		v := DefaultHighBoundary
		cfg.Router.HighBoundary = &v
	}
	if cfg.Delegate.TimeoutMs <= 0 {
		cfg.Delegate.TimeoutMs = DefaultTimeoutMs
	}
	if cfg.Delegate.MaxRetries == nil || *cfg.Delegate.MaxRetries < 0 {
		v := DefaultMaxRetries
		cfg.Delegate.MaxRetries = &v
	}
	if cfg.Delegate.BackoffMs < 0 {
		cfg.Delegate.BackoffMs = 0
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = DefaultTraceExporter
	}
	if cfg.Models == nil {
		cfg.Models = DefaultAliases()
	}
	cfg.Models.init()
}

// loadFileConfig reads and parses a config file.
func loadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := &FileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getEnvIntOrDefault(envVar string, defaultValue int) int {
	if v, ok := lookupEnvInt(envVar); ok {
		return v
	}
	return defaultValue
}

// lookupEnvInt ignores unset or non-numeric values.
func lookupEnvInt(envVar string) (int, bool) {
	val := os.Getenv(envVar)
	if val == "" {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskgate"), nil
}
