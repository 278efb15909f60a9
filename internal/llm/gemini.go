package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiGenerator calls the Gemini API. It is the only provider that honors WebSearch,
// via Google Search grounding.
type GeminiGenerator struct {
	apiKey string
	model  string
	logger zerolog.Logger

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiGenerator creates a Gemini generator. The client is created on first use.
func NewGeminiGenerator(apiKey, model string, logger zerolog.Logger) *GeminiGenerator {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiGenerator{
		apiKey: apiKey,
		model:  model,
		logger: logger.With().Str("component", "llm.gemini").Logger(),
	}
}

// Name implements Generator.
func (g *GeminiGenerator) Name() string { return ProviderGemini + "/" + g.model }

func (g *GeminiGenerator) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return client, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, req *Request) (*Response, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return nil, classify(ProviderGemini, 0, err)
	}

	temperature, topK, topP := req.Temperature, req.TopK, req.TopP
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		TopK:            &topK,
		TopP:            &topP,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}
	if req.WebSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: req.UserMessage}},
	}}

	result, err := client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, classify(ProviderGemini, geminiStatus(err), err)
	}
	if result == nil {
		return nil, fmt.Errorf("%s: %w", ProviderGemini, ErrEmptyResponse)
	}

	text, err := checkText(ProviderGemini, result.Text())
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Text:      text,
		Citations: geminiCitations(result),
		Model:     g.model,
	}
	if u := result.UsageMetadata; u != nil {
		resp.InputTokens = int(u.PromptTokenCount)
		resp.OutputTokens = int(u.CandidatesTokenCount)
	}

	g.logger.Debug().
		Str("model", g.model).
		Bool("web_search", req.WebSearch).
		Int("citations", len(resp.Citations)).
		Int("in_tokens", resp.InputTokens).
		Int("out_tokens", resp.OutputTokens).
		Msg("gemini generate")
	return resp, nil
}

func geminiCitations(result *genai.GenerateContentResponse) []Citation {
	if len(result.Candidates) == 0 || result.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []Citation
	for _, chunk := range result.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		out = append(out, Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return dedupeCitations(out)
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
