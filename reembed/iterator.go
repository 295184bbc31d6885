package reembed

import (
	"context"

	"github.com/poiesic/aikernel/storage"
)

// DefaultBatchSize is the number of texts embedded per request.
const DefaultBatchSize = 100

// TextIterator walks the texts cached under a model in batches.
type TextIterator struct {
	store     storage.VectorRepository
	model     string
	batchSize int
}

// NewTextIterator creates an iterator over model's texts. A batchSize below
// 1 uses DefaultBatchSize.
func NewTextIterator(store storage.VectorRepository, model string, batchSize int) *TextIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &TextIterator{store: store, model: model, batchSize: batchSize}
}

// Texts returns every text cached under the iterator's model.
func (it *TextIterator) Texts(ctx context.Context) ([]string, error) {
	return it.store.Texts(ctx, it.model)
}

// ForEach calls fn with consecutive batches of texts until all are processed
// or fn returns an error. Context cancellation is checked between batches.
func (it *TextIterator) ForEach(ctx context.Context, texts []string, fn func([]string) error) error {
	for i := 0; i < len(texts); i += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+it.batchSize, len(texts))
		if err := fn(texts[i:end]); err != nil {
			return err
		}
	}
	return ctx.Err()
}
