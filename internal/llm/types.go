// Package llm defines the text generation interface and its providers.
// Providers are interchangeable behind Generator; Gemini is the default.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
)

// Provider names accepted by New.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty response from provider")

// Request is one generation call.
type Request struct {
	SystemInstruction string
	UserMessage       string
	Temperature       float32
	TopK              float32
	TopP              float32
	MaxOutputTokens   int32
	// WebSearch lets the provider ground the answer with a web lookup, where supported.
	WebSearch bool
}

// Citation is a source the provider used while answering.
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// Response is the result of a generation call.
type Response struct {
	Text         string
	Citations    []Citation
	Model        string
	InputTokens  int
	OutputTokens int
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
	// Name returns "<provider>/<model>".
	Name() string
}

// checkText trims a provider answer and rejects empty text.
func checkText(provider, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", provider, ErrEmptyResponse)
	}
	return text, nil
}

// classify maps transport failures onto the shared error sentinels.
func classify(provider string, status int, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", provider, perrors.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", provider, err)
	}
	return &perrors.APIError{Service: provider, StatusCode: status, Message: "generation failed", Err: err}
}

// dedupeCitations drops empty and repeated URIs, keeping first-seen order.
func dedupeCitations(in []Citation) []Citation {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]Citation, 0, len(in))
	for _, c := range in {
		if c.URI == "" || seen[c.URI] {
			continue
		}
		seen[c.URI] = true
		out = append(out, c)
	}
	return out
}
