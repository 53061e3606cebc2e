// Package config holds all service configuration, loaded once at startup and
// immutable afterwards.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Tool      ToolConfig
	Retry     RetryConfig
	Search    SearchConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"5000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// ToolConfig holds the external browser CLI configuration. Timeouts are
// per-command, not per-operation.
type ToolConfig struct {
	Binary            string        `envconfig:"BROWSER_CLI" default:"browser-cli"`
	OpenTimeout       time.Duration `envconfig:"TOOL_OPEN_TIMEOUT" default:"30s"`
	WaitTimeout       time.Duration `envconfig:"TOOL_WAIT_TIMEOUT" default:"15s"`
	ExtractTimeout    time.Duration `envconfig:"TOOL_EXTRACT_TIMEOUT" default:"20s"`
	ScreenshotTimeout time.Duration `envconfig:"TOOL_SCREENSHOT_TIMEOUT" default:"30s"`
	CloseTimeout      time.Duration `envconfig:"TOOL_CLOSE_TIMEOUT" default:"5s"`
	CommandTimeout    time.Duration `envconfig:"TOOL_COMMAND_TIMEOUT" default:"30s"`
	MaxOutputBytes    int64         `envconfig:"TOOL_MAX_OUTPUT_BYTES" default:"10485760"`
}

// RetryConfig holds retry parameters for tool invocations.
type RetryConfig struct {
	MaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"2"`
	BaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"1s"`
}

// SearchConfig holds search pipeline parameters.
type SearchConfig struct {
	EngineURL          string        `envconfig:"SEARCH_ENGINE_URL" default:"https://www.google.com/search?q="`
	DefaultMaxResults  int           `envconfig:"SEARCH_DEFAULT_MAX_RESULTS" default:"5"`
	RelevanceThreshold float64       `envconfig:"SEARCH_RELEVANCE_THRESHOLD" default:"0.5"`
	MinKeywordLength   int           `envconfig:"SEARCH_MIN_KEYWORD_LENGTH" default:"2"`
	SnippetLength      int           `envconfig:"SEARCH_SNIPPET_LENGTH" default:"500"`
	PreviewLength      int           `envconfig:"SEARCH_PREVIEW_LENGTH" default:"150"`
	OperationTimeout   time.Duration `envconfig:"SEARCH_OPERATION_TIMEOUT" default:"120s"`
	ExclusionsFile     string        `envconfig:"SEARCH_EXCLUSIONS_FILE" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: "5000", Host: "0.0.0.0"},
		Logging:   LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{RequestsPerSecond: 50, Burst: 100, Enabled: true},
		Tool: ToolConfig{
			Binary:            "browser-cli",
			OpenTimeout:       30 * time.Second,
			WaitTimeout:       15 * time.Second,
			ExtractTimeout:    20 * time.Second,
			ScreenshotTimeout: 30 * time.Second,
			CloseTimeout:      5 * time.Second,
			CommandTimeout:    30 * time.Second,
			MaxOutputBytes:    10 * 1024 * 1024,
		},
		Retry: RetryConfig{MaxAttempts: 2, BaseDelay: time.Second},
		Search: SearchConfig{
			EngineURL:          "https://www.google.com/search?q=",
			DefaultMaxResults:  5,
			RelevanceThreshold: 0.5,
			MinKeywordLength:   2,
			SnippetLength:      500,
			PreviewLength:      150,
			OperationTimeout:   120 * time.Second,
		},
	}
}

// exclusionsFile is the YAML shape of an exclusion-pattern override file.
type exclusionsFile struct {
	Exclusions []string `yaml:"exclusions"`
}

// LoadExclusions reads an exclusion-pattern list from the YAML file named by
// Search.ExclusionsFile. Returns nil when no file is configured, so callers
// fall back to the built-in list.
func (c *Config) LoadExclusions() ([]string, error) {
	if c.Search.ExclusionsFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.Search.ExclusionsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read exclusions file: %w", err)
	}
	var f exclusionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse exclusions file: %w", err)
	}
	return f.Exclusions, nil
}
