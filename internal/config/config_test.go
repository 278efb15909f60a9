// Package config tests.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	cfg, err := LoadWithPrefix("")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "mentor.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "jwt", cfg.AuthMode)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, 90*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 1, cfg.UpgradeDefaultMonths)
}

func TestLoad_Overrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("TOKEN_TTL", "2h")

	cfg, err := LoadWithPrefix("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey())
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLMModel())
}

func TestLoad_WithPrefix(t *testing.T) {
	os.Clearenv()
	t.Setenv("MENTOR_DB_PATH", "/tmp/x.db")
	cfg, err := LoadWithPrefix("MENTOR")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
}

func TestLoad_InvalidDuration(t *testing.T) {
	os.Clearenv()
	t.Setenv("GENERATION_TIMEOUT", "soon")
	_, err := LoadWithPrefix("")
	require.Error(t, err)
}

func TestConfig_EnabledFlags(t *testing.T) {
	cfg := &Config{AuthMode: "jwt"}
	assert.False(t, cfg.SlackEnabled())
	assert.True(t, cfg.AuthEnabled())

	cfg.SlackBotToken = "xoxb-test"
	assert.False(t, cfg.SlackEnabled())
	cfg.SlackUpgradeChannel = "C123"
	assert.True(t, cfg.SlackEnabled())

	cfg.AuthMode = "none"
	assert.False(t, cfg.AuthEnabled())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		AuthMode:             "jwt",
		LLMProvider:          "gemini",
		UpgradeDefaultMonths: 1,
		UpgradeSweepInterval: time.Hour,
		GenerationTimeout:    time.Minute,
	}
	assert.Error(t, cfg.Validate(), "jwt mode needs a secret")

	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())

	cfg.LLMProvider = "llama"
	assert.Error(t, cfg.Validate())

	cfg.LLMProvider = "openai"
	cfg.UpgradeDefaultMonths = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_ValidateRejectsNonPositiveIntervals(t *testing.T) {
	os.Clearenv()
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("UPGRADE_SWEEP_INTERVAL", "0s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.UpgradeSweepInterval)
	assert.ErrorContains(t, cfg.Validate(), "UPGRADE_SWEEP_INTERVAL")

	cfg.UpgradeSweepInterval = time.Hour
	require.NoError(t, cfg.Validate())

	cfg.GenerationTimeout = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "GENERATION_TIMEOUT")

	cfg.GenerationTimeout = time.Minute
	cfg.RateLimitRPS = -1
	assert.ErrorContains(t, cfg.Validate(), "RATE_LIMIT_RPS")
}

func TestLoad_WithPrefixReadsDotEnv(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MENTOR_DB_PATH=/tmp/dotenv.db\n"), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("MENTOR_DB_PATH") })

	cfg, err := LoadWithPrefix("MENTOR")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/dotenv.db", cfg.DBPath)
}
