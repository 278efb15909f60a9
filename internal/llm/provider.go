package llm

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
}

// New returns the generator for cfg.Provider.
func New(cfg Config, logger zerolog.Logger) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: no API key configured for provider %q", cfg.Provider)
	}
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiGenerator(cfg.APIKey, cfg.Model, logger), nil
	case ProviderAnthropic:
		return NewAnthropicGenerator(cfg.APIKey, cfg.Model, logger), nil
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg.APIKey, cfg.Model, logger), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
