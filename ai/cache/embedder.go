// Package cache provides an embedding service decorator backed by an
// ai.VectorCache.
package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/aikernel/ai"
)

// Embedder serves embeddings from a vector cache and delegates misses to
// the wrapped service. Cache failures are logged and treated as misses.
type Embedder struct {
	inner  ai.EmbeddingService
	cache  ai.VectorCache
	model  string
	logger *slog.Logger
}

var _ ai.EmbeddingService = (*Embedder)(nil)

// NewEmbedder wraps inner with vc. Vectors are keyed by model and text.
func NewEmbedder(inner ai.EmbeddingService, vc ai.VectorCache, model string) *Embedder {
	return &Embedder{
		inner:  inner,
		cache:  vc,
		model:  model,
		logger: slog.Default().With("component", "embedding-cache", "model", model),
	}
}

// Model returns the cache namespace of this embedder.
func (e *Embedder) Model() string {
	return e.model
}

// Unwrap returns the uncached service.
func (e *Embedder) Unwrap() ai.EmbeddingService {
	return e.inner
}

// EmbedText returns the cached vector for text or embeds and stores it.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.lookup(ctx, text); ok {
		return vec, nil
	}
	vec, err := e.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	e.store(ctx, text, vec)
	return vec, nil
}

// EmbedTexts resolves each text from the cache and embeds all misses in a
// single call to the wrapped service. Result order matches texts.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var (
		missing []string
		slots   []int
	)
	for i, text := range texts {
		if vec, ok := e.lookup(ctx, text); ok {
			results[i] = vec
			continue
		}
		missing = append(missing, text)
		slots = append(slots, i)
	}
	if len(missing) == 0 {
		return results, nil
	}

	vecs, err := e.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(vecs), len(missing))
	}
	for j, vec := range vecs {
		results[slots[j]] = vec
		e.store(ctx, missing[j], vec)
	}
	e.logger.Debug("embedded cache misses", "hits", len(texts)-len(missing), "misses", len(missing))
	return results, nil
}

func (e *Embedder) lookup(ctx context.Context, text string) ([]float32, bool) {
	vec, ok, err := e.cache.Lookup(ctx, e.model, text)
	if err != nil {
		e.logger.Warn("vector cache lookup failed", "err", err)
		return nil, false
	}
	return vec, ok
}

func (e *Embedder) store(ctx context.Context, text string, vec []float32) {
	if err := e.cache.Store(ctx, e.model, text, vec); err != nil {
		e.logger.Warn("vector cache store failed", "err", err)
	}
}
