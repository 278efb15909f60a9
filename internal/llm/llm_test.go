package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
)

func testRequest() *Request {
	return &Request{
		SystemInstruction: "You are a mentor. Always respond in English.",
		UserMessage:       "Name my bike shop",
		Temperature:       0.7,
		TopK:              40,
		TopP:              0.95,
		MaxOutputTokens:   2048,
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	g, err := New(Config{Provider: ProviderGemini, APIKey: "k"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "gemini/"+DefaultGeminiModel, g.Name())

	g, err = New(Config{Provider: ProviderAnthropic, APIKey: "k", Model: "claude-x"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-x", g.Name())

	g, err = New(Config{Provider: ProviderOpenAI, APIKey: "k"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "openai/"+DefaultOpenAIModel, g.Name())

	_, err = New(Config{Provider: "mystery", APIKey: "k"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = New(Config{Provider: ProviderGemini}, zerolog.Nop())
	assert.Error(t, err)
}

func TestAnthropicGenerator_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "  Spokes & Co  "}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 4}
		}`)
	}))
	defer srv.Close()

	g := NewAnthropicGenerator("k", "", zerolog.Nop(), anthropicopt.WithBaseURL(srv.URL), anthropicopt.WithMaxRetries(0))
	resp, err := g.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "Spokes & Co", resp.Text)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, 4, resp.OutputTokens)
	assert.Equal(t, DefaultAnthropicModel, body["model"])
	assert.EqualValues(t, 2048, body["max_tokens"])
}

func TestAnthropicGenerator_EmptyAndErrors(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"m","type":"message","role":"assistant","model":"m","content":[],"usage":{"input_tokens":1,"output_tokens":0}}`)
	}))
	defer srv.Close()

	g := NewAnthropicGenerator("k", "", zerolog.Nop(), anthropicopt.WithBaseURL(srv.URL), anthropicopt.WithMaxRetries(0))

	_, err := g.Generate(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrEmptyResponse)

	status = http.StatusBadRequest
	_, err = g.Generate(context.Background(), testRequest())
	require.Error(t, err)
	var apiErr *perrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.False(t, perrors.IsRetryable(err))
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "resp_1", "object": "response", "created_at": 0, "model": "gpt-4.1-mini", "status": "completed",
			"output": [{
				"type": "message", "id": "msg_1", "status": "completed", "role": "assistant",
				"content": [{"type": "output_text", "text": "Spokes & Co", "annotations": []}]
			}],
			"usage": {"input_tokens": 9, "output_tokens": 3, "total_tokens": 12}
		}`)
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("k", "", zerolog.Nop(), openaiopt.WithBaseURL(srv.URL), openaiopt.WithMaxRetries(0))
	resp, err := g.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "Spokes & Co", resp.Text)
	assert.Equal(t, 9, resp.InputTokens)
	assert.Equal(t, "You are a mentor. Always respond in English.", body["instructions"])
	assert.Equal(t, "Name my bike shop", body["input"])
}

func TestGeminiCitations(t *testing.T) {
	result := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A again"}},
					{},
					{Web: &genai.GroundingChunkWeb{URI: "https://b.example"}},
				},
			},
		}},
	}

	assert.Equal(t, []Citation{
		{URI: "https://a.example", Title: "A"},
		{URI: "https://b.example"},
	}, geminiCitations(result))

	assert.Nil(t, geminiCitations(&genai.GenerateContentResponse{}))
}

func TestClassify(t *testing.T) {
	err := classify(ProviderGemini, 0, context.DeadlineExceeded)
	assert.ErrorIs(t, err, perrors.ErrTimeout)
	assert.True(t, perrors.IsRetryable(err))

	err = classify(ProviderGemini, 503, io.ErrUnexpectedEOF)
	assert.True(t, perrors.IsRetryable(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCheckText(t *testing.T) {
	_, err := checkText("x", "   \n")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	text, err := checkText("x", " ok ")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}
