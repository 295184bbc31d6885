package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of texts sent per embedding request
	BatchSize int

	// ReportInterval is how many texts pass between status line redraws
	ReportInterval int

	// OnProgress, if set, receives a snapshot after every stored batch
	OnProgress func(Progress)

	// MaxRetries is the maximum number of attempts per embedding request
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Normalize scales every new vector to unit length
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
		Normalize:      true,
	}
}

// Reembedder copies every text cached under one model into another, with
// vectors produced by a new embedding service. Source and target may be the
// same model to refresh vectors in place.
type Reembedder struct {
	store    storage.VectorRepository
	embedder ai.EmbeddingService
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(store storage.VectorRepository, embedder ai.EmbeddingService, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reembedder{
		store:    store,
		embedder: embedder,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "reembedder"),
	}
}

// Run re-embeds the texts of fromModel and stores them under toModel.
// Returns the number of texts processed.
func (r *Reembedder) Run(ctx context.Context, fromModel, toModel string) (int, error) {
	if fromModel == "" || toModel == "" {
		return 0, ErrModelRequired
	}

	iterator := NewTextIterator(r.store, fromModel, r.config.BatchSize)
	texts, err := iterator.Texts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list cached texts: %w", err)
	}
	total := len(texts)
	if total == 0 {
		fmt.Fprintf(r.progress, "No texts cached under %q\n", fromModel)
		return 0, nil
	}

	r.logger.Info("reembedding cached texts", "from", fromModel, "to", toModel, "count", total)
	fmt.Fprintf(r.progress, "Starting reembedding of %d texts (batch size: %d)\n",
		total, iterator.batchSize)

	processor := NewBatchProcessor(r.store, r.embedder, toModel, r.config.Normalize,
		r.config.MaxRetries, r.config.RetryDelay)
	mon := newMonitor(r.progress, r.config.OnProgress, fromModel, toModel,
		total, iterator.batchSize, r.config.ReportInterval)

	processed := 0
	err = iterator.ForEach(ctx, texts, func(batch []string) error {
		if err := processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("process batch at %d: %w", processed, err)
		}
		processed += len(batch)
		p := mon.batchStored(len(batch))
		r.logger.Debug("batch stored", "batch", p.Batch, "batches", p.Batches, "texts", p.Texts)
		return nil
	})
	if err != nil {
		r.logger.Error("reembedding failed", "processed", processed, "err", err)
		return processed, err
	}

	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d texts in %v\n",
		total, mon.elapsed().Round(time.Millisecond))
	return total, nil
}
