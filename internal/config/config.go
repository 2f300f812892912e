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

// Config holds the discovery API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Search     SearchConfig     `yaml:"search"`
	Similar    SimilarConfig    `yaml:"similar"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
	Facets     FacetsConfig     `yaml:"facets"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
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

// DatabaseConfig holds datastore connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// GenerationConfig holds text-generation provider settings (query expansion
// and no-results suggestions).
type GenerationConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// SearchConfig holds fusion tuning.
type SearchConfig struct {
	RRFK int `yaml:"rrf_k"`
}

// SimilarConfig holds similarity ranking tuning.
type SimilarConfig struct {
	Threshold float64 `yaml:"threshold"`
	TopN      int     `yaml:"top_n"`
	PoolSize  int     `yaml:"pool_size"`
}

// ClassLimit is one endpoint class's quota.
type ClassLimit struct {
	Limit     int `yaml:"limit"`
	WindowSec int `yaml:"window_sec"`
}

// RateLimitConfig holds per-endpoint-class quotas.
type RateLimitConfig struct {
	// Backend selects where window counters live: memory (single instance)
	// or redis (shared across instances).
	Backend   string     `yaml:"backend"`
	Discovery ClassLimit `yaml:"discovery"`
	Search    ClassLimit `yaml:"search"`
	Facets    ClassLimit `yaml:"facets"`
}

// FacetsConfig holds facet aggregation settings.
type FacetsConfig struct {
	CacheTTLSec int `yaml:"cache_ttl_sec"`
	FetchLimit  int `yaml:"fetch_limit"`
}

// AnalyticsConfig holds the analytics recorder settings.
type AnalyticsConfig struct {
	Stream   string `yaml:"stream"`
	PoolSize int    `yaml:"pool_size"`
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
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 10
	}
	if c.Search.RRFK <= 0 {
		c.Search.RRFK = 60
	}
	if c.Similar.Threshold <= 0 {
		c.Similar.Threshold = 0.2
	}
	if c.Similar.TopN <= 0 {
		c.Similar.TopN = 5
	}
	if c.Similar.PoolSize <= 0 {
		c.Similar.PoolSize = 200
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = "memory"
	}
	applyClassDefaults(&c.RateLimit.Discovery, 20)
	applyClassDefaults(&c.RateLimit.Search, 60)
	applyClassDefaults(&c.RateLimit.Facets, 100)
	if c.Facets.CacheTTLSec <= 0 {
		c.Facets.CacheTTLSec = 30
	}
	if c.Facets.FetchLimit <= 0 {
		c.Facets.FetchLimit = 1000
	}
	if c.Analytics.Stream == "" {
		c.Analytics.Stream = "discovery:analytics"
	}
	if c.Analytics.PoolSize <= 0 {
		c.Analytics.PoolSize = 8
	}
}

func applyClassDefaults(cl *ClassLimit, limit int) {
	if cl.Limit <= 0 {
		cl.Limit = limit
	}
	if cl.WindowSec <= 0 {
		cl.WindowSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
		// ok
	default:
		return fmt.Errorf("ratelimit.backend must be \"memory\" or \"redis\", got %q", c.RateLimit.Backend)
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
