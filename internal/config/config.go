package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
	AI          AIConfig          `yaml:"ai"`
	Auth        AuthConfig        `yaml:"auth"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// InterpreterConfig contains interpretation pipeline settings.
type InterpreterConfig struct {
	Debounce    Duration `yaml:"debounce"`
	MinGrowth   int      `yaml:"min_growth"`
	CacheSize   int      `yaml:"cache_size"`
	FailureRate float64  `yaml:"failure_rate"`
	LatencyMin  Duration `yaml:"latency_min"`
	LatencyMax  Duration `yaml:"latency_max"`
}

// AIConfig contains external model settings for the optional remote backend.
type AIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"-"` // env-only, never in YAML
	Model   string `yaml:"model"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("ECHO_CONFIG_PATH", "config/echo.yaml")

	// Missing file is not an error; defaults apply.
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/echo.db",
		},
		Interpreter: InterpreterConfig{
			Debounce:    Duration(500 * time.Millisecond),
			MinGrowth:   3,
			CacheSize:   20,
			FailureRate: 0.05,
			LatencyMin:  Duration(50 * time.Millisecond),
			LatencyMax:  Duration(300 * time.Millisecond),
		},
		AI: AIConfig{
			Enabled: false,
			Model:   "gpt-4o-mini",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("ECHO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ECHO_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("ECHO_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("ECHO_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("ECHO_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Interpreter
	if v := os.Getenv("ECHO_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Interpreter.Debounce = Duration(d)
		}
	}
	if v := os.Getenv("ECHO_MIN_GROWTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Interpreter.MinGrowth = n
		}
	}
	if v := os.Getenv("ECHO_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Interpreter.CacheSize = n
		}
	}
	if v := os.Getenv("ECHO_FAILURE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Interpreter.FailureRate = f
		}
	}
	if v := os.Getenv("ECHO_LATENCY_MIN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Interpreter.LatencyMin = Duration(d)
		}
	}
	if v := os.Getenv("ECHO_LATENCY_MAX"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Interpreter.LatencyMax = Duration(d)
		}
	}

	// AI (OPENAI_API_KEY is industry convention)
	if v := os.Getenv("ECHO_AI_ENABLED"); v != "" {
		cfg.AI.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("ECHO_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}

	// Auth
	if v := os.Getenv("ECHO_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Log
	if v := os.Getenv("ECHO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ECHO_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (ECHO_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if c.Interpreter.FailureRate < 0 || c.Interpreter.FailureRate > 1 {
		return fmt.Errorf("interpreter failure_rate %v out of range [0, 1]", c.Interpreter.FailureRate)
	}
	if c.Interpreter.CacheSize <= 0 {
		return fmt.Errorf("interpreter cache_size %d must be positive", c.Interpreter.CacheSize)
	}
	if c.Interpreter.LatencyMax < c.Interpreter.LatencyMin {
		return errors.New("interpreter latency_max must not be below latency_min")
	}

	// Dev mode bypasses API key validation
	if os.Getenv("ECHO_DEV_MODE") == "true" {
		return nil
	}

	if c.Auth.APIKey == "" {
		return errors.New("ECHO_API_KEY is required")
	}
	if c.AI.Enabled && c.AI.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required when ai.enabled is true")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
