package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the entsearch service configuration.
type Config struct {
	HTTP          HTTPConfig              `yaml:"http"`
	Auth          AuthConfig              `yaml:"auth"`
	Elasticsearch ElasticsearchConfig     `yaml:"elasticsearch"`
	Fallback      FallbackConfig          `yaml:"fallback"`
	Flags         FlagsConfig             `yaml:"flags"`
	Entities      map[string]EntityConfig `yaml:"entities"`
	Logging       LoggingConfig           `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ElasticsearchConfig holds search index settings.
type ElasticsearchConfig struct {
	Enabled          *bool    `yaml:"enabled"` // default: true
	Addresses        []string `yaml:"addresses"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	IndexPrefix      string   `yaml:"index_prefix"`
	DocumentType     bool     `yaml:"document_type"`   // send the entity as document type
	OnEngineError    string   `yaml:"on_engine_error"` // log (default) | escalate
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IsEnabled reports whether searches may use the index at all.
func (c ElasticsearchConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// FallbackConfig holds the authoritative store settings.
type FallbackConfig struct {
	DSN string `yaml:"dsn"`
}

// FlagsConfig holds eligibility kill switch settings.
type FlagsConfig struct {
	Driver             string   `yaml:"driver"` // static (default), redis
	Addrs              []string `yaml:"addrs"`
	Password           string   `yaml:"password"`
	Key                string   `yaml:"key"`
	RefreshIntervalSec int      `yaml:"refresh_interval_sec"`
	Disabled           []string `yaml:"disabled"` // entities switched off at startup, "*" for all
}

// EntityConfig describes one searchable entity.
type EntityConfig struct {
	Searchable *bool         `yaml:"searchable"` // default: true
	Fields     []FieldConfig `yaml:"fields"`
}

// IsSearchable reports whether the entity is registered for index search.
func (c EntityConfig) IsSearchable() bool {
	return c.Searchable == nil || *c.Searchable
}

// FieldConfig describes one mapped entity field.
type FieldConfig struct {
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`  // keyword, text, numeric, date, boolean
	Boost    float64 `yaml:"boost"` // > 0 makes the field part of free-text search
	Required bool    `yaml:"required"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Elasticsearch.OnEngineError == "" {
		c.Elasticsearch.OnEngineError = "log"
	}
	if c.Elasticsearch.ReadinessTimeout <= 0 {
		c.Elasticsearch.ReadinessTimeout = 10
	}
	if c.Flags.Driver == "" {
		c.Flags.Driver = "static"
	}
	if c.Flags.Key == "" {
		c.Flags.Key = "entsearch:flags"
	}
	if c.Flags.RefreshIntervalSec <= 0 {
		c.Flags.RefreshIntervalSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Elasticsearch.IsEnabled() && len(c.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("elasticsearch.addresses is required when search is enabled")
	}
	switch c.Elasticsearch.OnEngineError {
	case "log", "escalate":
	default:
		return fmt.Errorf(
			"elasticsearch.on_engine_error must be \"log\" or \"escalate\", got %q",
			c.Elasticsearch.OnEngineError,
		)
	}
	if c.Fallback.DSN == "" {
		return fmt.Errorf("fallback.dsn is required")
	}
	switch c.Flags.Driver {
	case "static":
	case "redis":
		if len(c.Flags.Addrs) == 0 {
			return fmt.Errorf("flags.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("flags.driver must be \"static\" or \"redis\", got %q", c.Flags.Driver)
	}
	if len(c.Entities) == 0 {
		return fmt.Errorf("at least one entity is required")
	}
	for name, e := range c.Entities {
		for i, f := range e.Fields {
			if f.Name == "" {
				return fmt.Errorf("entities.%s.fields[%d].name is required", name, i)
			}
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

// StaticFlags returns the startup kill switches as a flag hash.
func (c FlagsConfig) StaticFlags() map[string]string {
	m := make(map[string]string, len(c.Disabled))
	for _, e := range c.Disabled {
		m[e] = "false"
	}
	return m
}
