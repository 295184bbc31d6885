package mock

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/ai/cache"
	"github.com/poiesic/aikernel/ai/resilient"
	"github.com/poiesic/aikernel/kernel"
	"github.com/poiesic/aikernel/registry"
	"github.com/poiesic/aikernel/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletionService_FanOut(t *testing.T) {
	chat := NewMockChatCompletion()
	k, err := kernel.NewBuilder().
		With(ChatCompletionService(chat, ai.WithServiceID("gpt4"), ai.AsDefault())).
		Build()
	require.NoError(t, err)

	text, err := k.TextCompletion("")
	require.NoError(t, err)
	out, err := text.Complete(context.Background(), "echo me", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo me", out)
	assert.Equal(t, 1, chat.CallCount())

	name, ok := k.Services().DefaultName(ai.TextCompletion)
	assert.True(t, ok)
	assert.Equal(t, "gpt4", name)
}

func TestChatCompletionService_FanOutDisabled(t *testing.T) {
	k, err := kernel.NewBuilder().
		With(ChatCompletionService(NewMockChatCompletion(), ai.AlsoAsTextCompletion(false))).
		Build()
	require.NoError(t, err)

	_, err = k.ChatCompletion("")
	require.NoError(t, err)
	_, err = k.TextCompletion("")
	assert.ErrorIs(t, err, registry.ErrNoDefaultService)
}

func TestChatCompletionService_Resilient(t *testing.T) {
	k, err := kernel.NewBuilder().
		With(ChatCompletionService(NewMockChatCompletion(), ai.WithResilience(true))).
		Build()
	require.NoError(t, err)

	chat, err := k.ChatCompletion("")
	require.NoError(t, err)
	assert.IsType(t, &resilient.ChatCompletion{}, chat)

	text, err := k.TextCompletion("")
	require.NoError(t, err)
	out, err := text.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestChatCompletionService_ResilientSharedAcrossRuns(t *testing.T) {
	var inFlight, peak atomic.Int32
	chat := NewMockChatCompletion().WithGenerateMessageFunc(
		func(ctx context.Context, history *ai.ChatHistory, settings *ai.CompletionSettings) (string, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(40 * time.Millisecond)
			return "done", nil
		})

	k, err := kernel.NewBuilder().
		With(ChatCompletionService(chat, ai.WithResilience(true), ai.WithMaxConcurrent(1))).
		WithSemanticFunction("writer", "summarize", "Summarize: {{$input}}", nil, "").
		Build()
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := k.Run(context.Background(), "writer", "summarize", kernel.NewVariables("text"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), peak.Load())
	assert.Equal(t, 3, chat.CallCount())

	first, err := k.TextCompletion("")
	require.NoError(t, err)
	second, err := k.TextCompletion("")
	require.NoError(t, err)
	chatSvc, err := k.ChatCompletion("")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, first, chatSvc)
}

func TestPreloadWarmsMemoizedService(t *testing.T) {
	var builds atomic.Int32
	k, err := kernel.NewBuilder().
		WithAIService(ai.TextCompletion, registry.Memoize(func() (any, error) {
			builds.Add(1)
			return NewMockTextCompletion(), nil
		})).
		Build()
	require.NoError(t, err)

	require.NoError(t, k.Preload(context.Background(), 2))
	assert.Equal(t, int32(1), builds.Load())
	_, err = k.TextCompletion("")
	require.NoError(t, err)
	assert.Equal(t, int32(1), builds.Load())
}

func TestTextCompletionService(t *testing.T) {
	first := NewMockTextCompletion()
	second := NewMockTextCompletion().WithCompleteFunc(func(ctx context.Context, prompt string, settings *ai.CompletionSettings) (string, error) {
		return "second", nil
	})
	k, err := kernel.NewBuilder().
		With(
			TextCompletionService(first, ai.WithServiceID("one")),
			TextCompletionService(second, ai.WithServiceID("two"), ai.AsDefault()),
		).
		Build()
	require.NoError(t, err)

	svc, err := k.TextCompletion("")
	require.NoError(t, err)
	out, err := svc.Complete(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", out)

	svc, err = k.TextCompletion("one")
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"prompt"}, first.Prompts())
}

func TestEmbeddingService_WithCache(t *testing.T) {
	store, err := badger.NewMemoryVectorStore()
	require.NoError(t, err)
	defer store.Close()

	embedder := NewMockEmbedder()
	k, err := kernel.NewBuilder().
		With(EmbeddingService(embedder, "mock-model", ai.WithVectorCache(store))).
		Build()
	require.NoError(t, err)

	svc, err := k.Embedding("")
	require.NoError(t, err)
	assert.IsType(t, &cache.Embedder{}, svc)

	a, err := svc.EmbedText(context.Background(), "same")
	require.NoError(t, err)
	b, err := svc.EmbedText(context.Background(), "same")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestImageGenerationService(t *testing.T) {
	gen := NewMockImageGenerator()
	k, err := kernel.NewBuilder().
		With(ImageGenerationService(gen, ai.WithServiceID("dalle"))).
		Build()
	require.NoError(t, err)

	svc, err := k.ImageGeneration("dalle")
	require.NoError(t, err)
	url, err := svc.GenerateImage(context.Background(), "a cat", 256, 256)
	require.NoError(t, err)
	assert.Contains(t, url, "-256x256.png")

	again, err := svc.GenerateImage(context.Background(), "a cat", 256, 256)
	require.NoError(t, err)
	assert.Equal(t, url, again)
	assert.Equal(t, 2, gen.CallCount())
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	m.Dimensions = 16
	a, err := m.EmbedText(context.Background(), "text")
	require.NoError(t, err)
	b, err := m.EmbedTexts(context.Background(), []string{"text", "other"})
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.Equal(t, a, b[0])
	assert.NotEqual(t, b[0], b[1])

	m.Reset()
	assert.Zero(t, m.CallCount())
}

func TestMockEmbedder_UnitLength(t *testing.T) {
	m := NewMockEmbedder()
	for _, text := range []string{"a", "longer text", "third"} {
		vec, err := m.EmbedText(context.Background(), text)
		require.NoError(t, err)
		var sum float64
		for _, v := range vec {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4, text)
	}
}
