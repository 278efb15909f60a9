package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5"

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	model  anthropic.Model
	logger zerolog.Logger
}

// NewAnthropicGenerator constructs a new Anthropic generator.
func NewAnthropicGenerator(apiKey, model string, logger zerolog.Logger, opts ...option.RequestOption) *AnthropicGenerator {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicGenerator{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
		logger: logger.With().Str("component", "llm.anthropic").Logger(),
	}
}

// Name implements Generator.
func (p *AnthropicGenerator) Name() string { return ProviderAnthropic + "/" + string(p.model) }

// Generate implements Generator. WebSearch is ignored.
func (p *AnthropicGenerator) Generate(ctx context.Context, req *Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model: p.model,
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(req.UserMessage)},
		}},
		MaxTokens:   int64(req.MaxOutputTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if req.TopK > 0 {
		params.TopK = anthropic.Int(int64(req.TopK))
	}
	if req.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: req.SystemInstruction,
			Type: "text",
		}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return nil, classify(ProviderAnthropic, status, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%s: %w", ProviderAnthropic, ErrEmptyResponse)
	}

	var b strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	text, err := checkText(ProviderAnthropic, b.String())
	if err != nil {
		return nil, err
	}

	out := &Response{
		Text:         text,
		Model:        string(p.model),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}

	p.logger.Debug().
		Str("model", out.Model).
		Str("stop_reason", string(resp.StopReason)).
		Int("in_tokens", out.InputTokens).
		Int("out_tokens", out.OutputTokens).
		Msg("anthropic generate")
	return out, nil
}
