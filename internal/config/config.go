package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment   string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	DBPath        string `envconfig:"DB_PATH" default:"mentor.db"`
	DefaultLocale string `envconfig:"DEFAULT_LOCALE" default:"en"`

	// HTTP API
	ListenAddr     string        `envconfig:"LISTEN_ADDR" default:":8080"`
	AuthMode       string        `envconfig:"AUTH_MODE" default:"jwt"` // "jwt" or "none"
	JWTSecret      string        `envconfig:"JWT_SECRET"`
	JWTIssuer      string        `envconfig:"JWT_ISSUER" default:"startup-mentor"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	RateLimitRPS   int           `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int           `envconfig:"RATE_LIMIT_BURST" default:"40"`
	CORSOrigins    string        `envconfig:"CORS_ORIGINS"`
	TLSCert        string        `envconfig:"TLS_CERT"`
	TLSKey         string        `envconfig:"TLS_KEY"`

	// Generative text service
	LLMProvider       string        `envconfig:"LLM_PROVIDER" default:"gemini"` // gemini | anthropic | openai
	GeminiAPIKey      string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel       string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	AnthropicAPIKey   string        `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel    string        `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-5"`
	OpenAIAPIKey      string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel       string        `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
	GenerationTimeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"90s"`

	// Upgrade requests
	SlackBotToken        string        `envconfig:"SLACK_BOT_TOKEN"`
	SlackUpgradeChannel  string        `envconfig:"SLACK_UPGRADE_CHANNEL"`
	UpgradeDefaultMonths int           `envconfig:"UPGRADE_DEFAULT_MONTHS" default:"1"`
	UpgradeSweepInterval time.Duration `envconfig:"UPGRADE_SWEEP_INTERVAL" default:"1h"`
}

// SlackEnabled returns true if upgrade notifications can be posted to Slack.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackUpgradeChannel != ""
}

// AuthEnabled returns true unless authentication is explicitly disabled.
func (c *Config) AuthEnabled() bool {
	return !strings.EqualFold(c.AuthMode, "none")
}

// LLMAPIKey returns the API key of the selected provider.
func (c *Config) LLMAPIKey() string {
	switch strings.ToLower(c.LLMProvider) {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// LLMModel returns the model name of the selected provider.
func (c *Config) LLMModel() string {
	switch strings.ToLower(c.LLMProvider) {
	case "anthropic":
		return c.AnthropicModel
	case "openai":
		return c.OpenAIModel
	default:
		return c.GeminiModel
	}
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if c.AuthEnabled() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is %q", c.AuthMode)
	}
	switch strings.ToLower(c.LLMProvider) {
	case "gemini", "anthropic", "openai":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.UpgradeDefaultMonths < 1 {
		return fmt.Errorf("UPGRADE_DEFAULT_MONTHS must be at least 1")
	}
	if c.UpgradeSweepInterval <= 0 {
		return fmt.Errorf("UPGRADE_SWEEP_INTERVAL must be positive, got %s", c.UpgradeSweepInterval)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive, got %s", c.GenerationTimeout)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	return nil
}

// Load reads an optional .env file and then configuration from environment variables.
// Variables already set in the environment take precedence over .env entries.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// LoadWithPrefix reads an optional .env file and then configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}
	return &cfg, nil
}
