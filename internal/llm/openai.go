package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/rs/zerolog"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4.1-mini"

// OpenAIGenerator calls the OpenAI Responses API.
type OpenAIGenerator struct {
	client openai.Client
	model  string
	logger zerolog.Logger
}

// NewOpenAIGenerator constructs a new OpenAI generator.
func NewOpenAIGenerator(apiKey, model string, logger zerolog.Logger, opts ...option.RequestOption) *OpenAIGenerator {
	if model == "" {
		model = DefaultOpenAIModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger.With().Str("component", "llm.openai").Logger(),
	}
}

// Name implements Generator.
func (o *OpenAIGenerator) Name() string { return ProviderOpenAI + "/" + o.model }

// Generate implements Generator. WebSearch is ignored.
func (o *OpenAIGenerator) Generate(ctx context.Context, req *Request) (*Response, error) {
	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(int64(req.MaxOutputTokens)),
		Temperature:     openai.Float(float64(req.Temperature)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(req.UserMessage)},
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(float64(req.TopP))
	}
	if req.SystemInstruction != "" {
		params.Instructions = openai.String(req.SystemInstruction)
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return nil, classify(ProviderOpenAI, status, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%s: %w", ProviderOpenAI, ErrEmptyResponse)
	}

	text, err := checkText(ProviderOpenAI, resp.OutputText())
	if err != nil {
		return nil, err
	}

	out := &Response{
		Text:         text,
		Model:        o.model,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}

	o.logger.Debug().
		Str("model", o.model).
		Int("in_tokens", out.InputTokens).
		Int("out_tokens", out.OutputTokens).
		Msg("openai generate")
	return out, nil
}
