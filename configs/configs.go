package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

// Backends accepted by AI_BACKEND.
const (
	BackendCLI = "cli"
	BackendAPI = "api"
)

// Config holds every runtime setting of the service.
type Config struct {
	// Server configuration
	Host            string
	Port            string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	RateLimitPerMin int
	MetricsEnabled  bool

	// Logging
	LogLevel  string
	LogFormat string

	// Query capability
	Backend       string
	ClaudeBin     string
	ClaudeModel   string
	ClaudeWorkDir string
	APIKey        string
	APIModel      string
	APIBaseURL    string
	APIMaxTokens  int
	SystemPrompt  string
	QueryTimeout  time.Duration

	// Telegram notifier, disabled when either value is empty
	BotToken string
	BotChat  string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, using system environment variables")
	}

	cfg := &Config{
		Host:          getEnv("HOST", ""),
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		Backend:       getEnv("AI_BACKEND", BackendCLI),
		ClaudeBin:     getEnv("CLAUDE_BIN", "claude"),
		ClaudeModel:   getEnv("CLAUDE_MODEL", ""),
		ClaudeWorkDir: getEnv("CLAUDE_WORKDIR", ""),
		APIKey:        getEnv("ANTHROPIC_API_KEY", ""),
		APIModel:      getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		APIBaseURL:    getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		SystemPrompt:  getEnv("AI_SYSTEM_PROMPT", ""),
		BotToken:      getEnv("TELEGRAM_APITOKEN", ""),
		BotChat:       getEnv("TELEGRAM_CHAT", ""),
	}

	var err error
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = getDuration("QUERY_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.APIMaxTokens, err = getInt("ANTHROPIC_MAX_TOKENS", 4096); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMin, err = getInt("RATE_LIMIT_PER_MINUTE", 0); err != nil {
		return nil, err
	}
	maxBody, err := getInt("MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxBodyBytes = int64(maxBody)
	if cfg.MetricsEnabled, err = getBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendCLI:
		if c.ClaudeBin == "" {
			return fmt.Errorf("CLAUDE_BIN must not be empty")
		}
	case BackendAPI:
		if c.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_BACKEND=%s", BackendAPI)
		}
		if c.APIMaxTokens <= 0 {
			return fmt.Errorf("ANTHROPIC_MAX_TOKENS must be positive, got %d", c.APIMaxTokens)
		}
	default:
		return fmt.Errorf("unknown AI_BACKEND %q (want %q or %q)", c.Backend, BackendCLI, BackendAPI)
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be >= 0")
	}
	if c.RateLimitPerMin < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// NotifierEnabled reports whether query results are published to Telegram.
func (c *Config) NotifierEnabled() bool {
	return c.BotToken != "" && c.BotChat != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
