package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/edgarlens/internal/config"
)

// ── OpenAI ──

func TestOpenAIProviderNew(t *testing.T) {
	_, err := NewOpenAIProvider("")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	p, err := NewOpenAIProvider("sk-test", WithOpenAIModel("gpt-4o"), WithOpenAIBaseURL("http://custom/"))
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.Name())
	assert.Equal(t, "gpt-4o", p.model)
	assert.Equal(t, "http://custom", p.baseURL)

	p, err = NewOpenAIProvider("sk-test", WithOpenAIModel(""), WithOpenAIBaseURL(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, p.model)
	assert.Equal(t, "https://api.openai.com/v1", p.baseURL)
}

func TestOpenAIChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		require.NotNil(t, req.Temperature)
		assert.InDelta(t, 0.25, *req.Temperature, 1e-9)

		_ = json.NewEncoder(w).Encode(openAIChatResponse{
			ID: "chatcmpl-123",
			Choices: []openAIChoice{{
				Message:      openAIMessage{Role: "assistant", Content: `{"verdict":"stable"}`},
				FinishReason: "stop",
			}},
			Usage: openAIUsage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
			Model: "gpt-4o-mini-2024-07-18",
		})
	}))
	defer server.Close()

	p, err := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(),
		[]Message{SystemMessage("Be precise."), UserMessage("Assess AAPL.")},
		WithTemperature(0.25))
	require.NoError(t, err)
	assert.Equal(t, `{"verdict":"stable"}`, resp.Content)
	assert.Equal(t, ProviderOpenAI, resp.Provider)
	assert.Equal(t, 30, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Contains(t, resp.String(), "openai/gpt-4o-mini-2024-07-18")
}

func TestOpenAIOmitsUnsetTemperature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, has := raw["temperature"]
		assert.False(t, has)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
	resp, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, resp.Model, "falls back to the requested model")
}

func TestOpenAIErrorHandling(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		want       error
	}{
		{"unauthorized", 401, `{"error":{"message":"Invalid key","type":"auth","code":"invalid_api_key"}}`, ErrNoAPIKey},
		{"rate_limit", 429, `{"error":{"message":"Rate limit exceeded","type":"rate_limit"}}`, ErrRateLimit},
		{"context_length", 400, `{"error":{"message":"Too many tokens","code":"context_length_exceeded"}}`, ErrContextLength},
		{"model_not_found", 404, `{"error":{"message":"Model not found","code":"model_not_found"}}`, ErrInvalidModel},
		{"server_error", 502, `bad gateway`, ErrProviderDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
			_, err := p.Chat(context.Background(), []Message{UserMessage("test")}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenAIUnreachable(t *testing.T) {
	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL("http://127.0.0.1:1"))
	_, err := p.Chat(context.Background(), []Message{UserMessage("test")}, nil)
	assert.ErrorIs(t, err, ErrProviderDown)
}

// ── Anthropic ──

func anthropicServer(t *testing.T, status int, body string, check func(map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("X-Api-Key"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if check != nil {
			check(req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

const anthropicReply = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-sonnet-4-20250514",
	"content": [{"type": "text", "text": "{\"sentiment\":"}, {"type": "text", "text": "\"mixed\"}"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 12, "output_tokens": 8}
}`

func TestAnthropicChat(t *testing.T) {
	server := anthropicServer(t, http.StatusOK, anthropicReply, func(req map[string]any) {
		assert.Equal(t, "claude-sonnet-4-20250514", req["model"])
		assert.EqualValues(t, 1024, req["max_tokens"])
		assert.InDelta(t, 0.2, req["temperature"], 1e-9)

		system, ok := req["system"].([]any)
		require.True(t, ok)
		require.Len(t, system, 1)
		assert.Equal(t, "Return JSON.", system[0].(map[string]any)["text"])

		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 1, "system messages are not sent as turns")
		assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	})
	defer server.Close()

	p, err := NewAnthropicProvider("ak-test",
		WithAnthropicBaseURL(server.URL),
		WithAnthropicMaxTokens(1024),
		WithAnthropicMaxRetries(0),
	)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, p.Name())

	text, err := Complete(context.Background(), p, "Return JSON.", "Summarize.", WithTemperature(0.2))
	require.NoError(t, err)
	assert.Equal(t, `{"sentiment":"mixed"}`, text)
}

func TestAnthropicUsage(t *testing.T) {
	server := anthropicServer(t, http.StatusOK, anthropicReply, nil)
	defer server.Close()

	p, _ := NewAnthropicProvider("ak-test", WithAnthropicBaseURL(server.URL), WithAnthropicMaxRetries(0))
	resp, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, ProviderAnthropic, resp.Provider)
}

func TestAnthropicErrors(t *testing.T) {
	_, err := NewAnthropicProvider("")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrNoAPIKey},
		{http.StatusTooManyRequests, ErrRateLimit},
		{http.StatusNotFound, ErrInvalidModel},
		{http.StatusInternalServerError, ErrProviderDown},
	}
	for _, tt := range tests {
		body := `{"type":"error","error":{"type":"api_error","message":"nope"}}`
		server := anthropicServer(t, tt.status, body, nil)

		p, _ := NewAnthropicProvider("ak-test", WithAnthropicBaseURL(server.URL), WithAnthropicMaxRetries(0))
		_, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		server.Close()
	}
}

func TestAnthropicDoesNotRetryByDefault(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`))
	}))
	defer server.Close()

	p, err := NewAnthropicProvider("ak-test", WithAnthropicBaseURL(server.URL))
	require.NoError(t, err)
	_, err = p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	assert.ErrorIs(t, err, ErrProviderDown)
	assert.EqualValues(t, 1, hits.Load())
}

// ── Complete ──

type stubProvider struct {
	content string
	err     error
	got     []Message
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Chat(_ context.Context, msgs []Message, _ *ChatOptions) (*Response, error) {
	s.got = msgs
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Content: s.content}, nil
}

func TestCompleteEmptyResponse(t *testing.T) {
	_, err := Complete(context.Background(), &stubProvider{content: "  "}, "", "hi", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCompleteSkipsEmptySystem(t *testing.T) {
	stub := &stubProvider{content: "ok"}
	_, err := Complete(context.Background(), stub, "", "hi", nil)
	require.NoError(t, err)
	require.Len(t, stub.got, 1)
	assert.Equal(t, RoleUser, stub.got[0].Role)
}

func TestCompletePropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Complete(context.Background(), &stubProvider{err: boom}, "sys", "hi", nil)
	assert.ErrorIs(t, err, boom)
}

// ── Factory ──

func TestNewFromConfig(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)

	cfg.LLM.OpenAIKey = "sk-test"
	cfg.LLM.AnthropicKey = ""
	p, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.Name())
	assert.Equal(t, "gpt-4o-mini", p.(*OpenAIProvider).model)

	cfg.LLM.Primary = ProviderAnthropic
	_, err = NewFromConfig(cfg)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	cfg.LLM.AnthropicKey = "ak-test"
	p, err = NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultAnthropicModel, p.(*AnthropicProvider).model, "an OpenAI model name is not sent to Anthropic")

	cfg.LLM.Primary = "gemini"
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}

func TestModelFor(t *testing.T) {
	assert.Equal(t, "claude-3-5-haiku-20241022", modelFor(ProviderAnthropic, "claude-3-5-haiku-20241022"))
	assert.Equal(t, DefaultAnthropicModel, modelFor(ProviderAnthropic, "gpt-4o"))
	assert.Equal(t, "gpt-4o", modelFor(ProviderOpenAI, "gpt-4o"))
	assert.Equal(t, DefaultOpenAIModel, modelFor(ProviderOpenAI, ""))
	assert.Equal(t, DefaultOpenAIModel, modelFor(ProviderOpenAI, "claude-sonnet-4-20250514"))
}
