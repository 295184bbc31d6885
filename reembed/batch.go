package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/ai/resilient"
	"github.com/poiesic/aikernel/storage"
)

// BatchProcessor embeds a batch of texts and writes the vectors under the
// target model.
type BatchProcessor struct {
	store     storage.VectorRepository
	embedder  ai.EmbeddingService
	model     string
	normalize bool
	retrier   retry.Retry[[][]float32]
}

// NewBatchProcessor creates a processor writing to model. Embedding calls are
// attempted up to maxRetries times with exponential backoff starting at
// retryDelay.
func NewBatchProcessor(store storage.VectorRepository, embedder ai.EmbeddingService, model string, normalize bool, maxRetries int, retryDelay time.Duration) *BatchProcessor {
	maxRetries = max(maxRetries, 1)
	return &BatchProcessor{
		store:     store,
		embedder:  embedder,
		model:     model,
		normalize: normalize,
		retrier: retry.New[[][]float32](retry.Config{
			MaxAttempts:   maxRetries,
			InitialDelay:  retryDelay,
			MaxDelay:      retryDelay << maxRetries,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			IsRetryable:   resilient.IsRetryable,
		}),
	}
}

// Process embeds texts and stores one vector per text.
func (bp *BatchProcessor) Process(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	vectors, err := bp.retrier.Do(ctx, func(ctx context.Context) ([][]float32, error) {
		return bp.embedder.EmbedTexts(ctx, texts)
	})
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(texts), len(vectors))
	}

	for i, text := range texts {
		vector := vectors[i]
		if bp.normalize {
			vector = NormalizeVector(vector)
		}
		if err := bp.store.PutVector(ctx, bp.model, text, vector); err != nil {
			return fmt.Errorf("store vector: %w", err)
		}
	}
	return nil
}
