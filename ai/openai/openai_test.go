package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/kernel"
	"github.com/poiesic/aikernel/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

// recordingModel captures the messages and options it receives.
type recordingModel struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	reply    string
	err      error
}

func (m *recordingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.options)
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestTextCompletion_Complete(t *testing.T) {
	svc := NewTextCompletion(fake.NewFakeLLM([]string{"first", "second"}))

	out, err := svc.Complete(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	out, err = svc.Complete(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestChatCompletion_GenerateMessage(t *testing.T) {
	model := &recordingModel{reply: "fine, thanks"}
	svc := NewChatCompletion(model)

	history := svc.NewChat("be polite")
	history.AddUserMessage("hi")
	history.AddAssistantMessage("hello")
	history.AddUserMessage("how are you?")

	settings := &ai.CompletionSettings{
		Temperature:   0.7,
		TopP:          0.9,
		MaxTokens:     64,
		StopSequences: []string{"\n\n"},
	}
	out, err := svc.GenerateMessage(context.Background(), history, settings)
	require.NoError(t, err)
	assert.Equal(t, "fine, thanks", out)

	require.Len(t, model.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, model.messages[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[3].Role)

	assert.InDelta(t, 0.7, model.options.Temperature, 1e-9)
	assert.InDelta(t, 0.9, model.options.TopP, 1e-9)
	assert.Equal(t, 64, model.options.MaxTokens)
	assert.Equal(t, []string{"\n\n"}, model.options.StopWords)
}

func TestChatCompletion_Complete(t *testing.T) {
	model := &recordingModel{reply: "pong"}
	svc := NewChatCompletion(model)

	out, err := svc.Complete(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
	require.Len(t, model.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0].Role)
	assert.Equal(t, 256, model.options.MaxTokens)
}

func TestChatCompletion_Errors(t *testing.T) {
	t.Run("empty response", func(t *testing.T) {
		svc := NewChatCompletion(&recordingModel{})
		_, err := svc.Complete(context.Background(), "x", nil)
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("model error", func(t *testing.T) {
		boom := errors.New("boom")
		svc := NewChatCompletion(&recordingModel{err: boom})
		_, err := svc.Complete(context.Background(), "x", nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("unknown role", func(t *testing.T) {
		svc := NewChatCompletion(&recordingModel{reply: "x"})
		history := svc.NewChat("")
		history.AddMessage("narrator", "once upon a time")
		_, err := svc.GenerateMessage(context.Background(), history, nil)
		assert.Error(t, err)
	})
}

func TestEmbedder(t *testing.T) {
	var seen [][]string
	client := embeddings.EmbedderClientFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
		seen = append(seen, texts)
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(i + 1)}
		}
		return out, nil
	})
	e, err := NewEmbedder(client)
	require.NoError(t, err)

	vec, err := e.EmbedText(context.Background(), "line one\nline two")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, []string{"line one line two"}, seen[0])

	vecs, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vecs)
}

func TestExtensions_ValidateAtRegistration(t *testing.T) {
	tests := []struct {
		name string
		ext  kernel.Extension
	}{
		{"nil config", TextCompletionService(nil)},
		{"missing host", ChatCompletionService(&ai.Config{ChatModel: "m"})},
		{"missing text model", TextCompletionService(ai.NewConfig(ai.WithTextModel("")))},
		{"missing image model", ImageGenerationService(ai.NewConfig())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := kernel.NewBuilder().With(tt.ext).Build()
			assert.ErrorIs(t, err, registry.ErrInvalidRegistration)
		})
	}
}

func TestChatCompletionService_FansOut(t *testing.T) {
	cfg := ai.NewConfig(ai.WithChatModel("gpt-4o"))
	k, err := kernel.NewBuilder().
		With(ChatCompletionService(cfg, ai.WithServiceID("gpt4"), ai.AsDefault())).
		Build()
	require.NoError(t, err)

	names := k.Services().ListNames(ai.TextCompletion)
	var got []string
	for name := range names {
		got = append(got, name)
	}
	assert.Equal(t, []string{"gpt4"}, got)

	text, err := k.TextCompletion("")
	require.NoError(t, err)
	assert.IsType(t, &ChatCompletion{}, text)

	chat, err := k.ChatCompletion("gpt4")
	require.NoError(t, err)
	assert.IsType(t, &ChatCompletion{}, chat)
}

func TestChatCompletionService_NoFanOut(t *testing.T) {
	cfg := ai.NewConfig(ai.WithChatModel("gpt-4o"))
	k, err := kernel.NewBuilder().
		With(ChatCompletionService(cfg, ai.WithServiceID("gpt4"), ai.AlsoAsTextCompletion(false))).
		Build()
	require.NoError(t, err)

	_, err = k.TextCompletion("")
	assert.ErrorIs(t, err, registry.ErrNoDefaultService)
}

func TestChatCompletionService_AgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 2, "total_tokens": 3}
		}`))
	}))
	defer server.Close()

	cfg := ai.NewConfig(
		ai.WithHost(server.URL),
		ai.WithAPIKey("secret"),
		ai.WithChatModel("gpt-4o"),
	)
	k, err := kernel.NewBuilder().
		With(ChatCompletionService(cfg, ai.WithHTTPClient(server.Client()))).
		Build()
	require.NoError(t, err)

	text, err := k.TextCompletion("")
	require.NoError(t, err)
	out, err := text.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
}

func TestChatCompletionService_BuildsOnce(t *testing.T) {
	cfg := ai.NewConfig(ai.WithChatModel("gpt-4o"))
	k, err := kernel.NewBuilder().
		With(ChatCompletionService(cfg, ai.WithServiceID("gpt4"), ai.WithResilience(true))).
		Build()
	require.NoError(t, err)

	first, err := k.ChatCompletion("gpt4")
	require.NoError(t, err)
	second, err := k.ChatCompletion("gpt4")
	require.NoError(t, err)
	text, err := k.TextCompletion("gpt4")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, text, "fan-out shares the instance and its policies")
}

func TestResilientChatCompletion_ClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	cfg := ai.NewConfig(ai.WithHost(server.URL), ai.WithAPIKey("bad"), ai.WithChatModel("gpt-4o"))
	k, err := kernel.NewBuilder().
		With(ChatCompletionService(cfg, ai.WithResilience(true), ai.WithHTTPClient(server.Client()))).
		Build()
	require.NoError(t, err)

	text, err := k.TextCompletion("")
	require.NoError(t, err)

	start := time.Now()
	_, err = text.Complete(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), hits.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestAzureChatCompletionService_AgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt4o-prod/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-02-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "from azure"}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	cfg := ai.NewConfig(
		ai.WithAzure(server.URL+"/", "secret"),
		ai.WithAPIVersion("2024-02-01"),
		ai.WithChatModel("gpt4o-prod"),
	)
	k, err := kernel.NewBuilder().
		With(ChatCompletionService(cfg, ai.WithHTTPClient(server.Client()))).
		Build()
	require.NoError(t, err)

	chat, err := k.ChatCompletion("")
	require.NoError(t, err)
	history := chat.NewChat("")
	history.AddUserMessage("hi")
	out, err := chat.GenerateMessage(context.Background(), history, nil)
	require.NoError(t, err)
	assert.Equal(t, "from azure", out)
}

func TestAzureEmbeddingService_AgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/embed-prod/embeddings", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","embedding":[0.6,0.8],"index":0}]}`))
	}))
	defer server.Close()

	k, err := kernel.NewBuilder().
		With(AzureEmbeddingService("embed-prod", server.URL, "secret", ai.WithHTTPClient(server.Client()))).
		Build()
	require.NoError(t, err)

	embedder, err := k.Embedding("")
	require.NoError(t, err)
	vec, err := embedder.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.6, 0.8}, vec)
}

func TestAzureExtensions_Validate(t *testing.T) {
	_, err := kernel.NewBuilder().With(AzureChatCompletionService("dep", "https://res.openai.azure.com", "")).Build()
	assert.ErrorIs(t, err, registry.ErrInvalidRegistration)

	k, err := kernel.NewBuilder().
		With(AzureTextCompletionService("dep", "https://res.openai.azure.com", "key", ai.WithServiceID("azure"))).
		Build()
	require.NoError(t, err)
	assert.True(t, k.Services().Has(ai.TextCompletion, "azure"))
}

func TestImageGenerator(t *testing.T) {
	var got imageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer none", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"url":"https://example.com/cat.png"}]}`))
	}))
	defer server.Close()

	cfg := ai.NewConfig(ai.WithHost(server.URL), ai.WithImageModel("dall-e-3"))
	k, err := kernel.NewBuilder().With(ImageGenerationService(cfg)).Build()
	require.NoError(t, err)

	gen, err := k.ImageGeneration("")
	require.NoError(t, err)
	url, err := gen.GenerateImage(context.Background(), "a cat", 1024, 512)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cat.png", url)
	assert.Equal(t, "dall-e-3", got.Model)
	assert.Equal(t, "a cat", got.Prompt)
	assert.Equal(t, "1024x512", got.Size)
	assert.Equal(t, 1, got.N)
}

func TestImageGenerator_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer server.Close()

		cfg := ai.NewConfig(ai.WithHost(server.URL), ai.WithImageModel("m"))
		cfg.Normalize()
		_, err := NewImageGenerator(cfg, server.Client()).GenerateImage(context.Background(), "x", 8, 8)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("base64 payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[{"b64_json":"AAAA"}]}`))
		}))
		defer server.Close()

		cfg := ai.NewConfig(ai.WithHost(server.URL), ai.WithImageModel("m"))
		cfg.Normalize()
		url, err := NewImageGenerator(cfg, server.Client()).GenerateImage(context.Background(), "x", 8, 8)
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,AAAA", url)
	})

	t.Run("invalid size", func(t *testing.T) {
		cfg := ai.NewConfig(ai.WithImageModel("m"))
		_, err := NewImageGenerator(cfg, nil).GenerateImage(context.Background(), "x", 0, 8)
		assert.Error(t, err)
	})
}
