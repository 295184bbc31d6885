package ai

import "context"

// TextCompletionService produces a completion for a single prompt.
// Implementations must be thread-safe for concurrent use.
type TextCompletionService interface {
	// Complete generates text continuing or answering prompt.
	// A nil settings value means DefaultCompletionSettings.
	Complete(ctx context.Context, prompt string, settings *CompletionSettings) (string, error)
}

// ChatCompletionService generates assistant messages for a chat history.
// Implementations must be thread-safe for concurrent use.
type ChatCompletionService interface {
	// NewChat starts a history seeded with optional system instructions.
	NewChat(instructions string) *ChatHistory

	// GenerateMessage generates the next assistant message for history.
	// The history is not modified; callers append the reply themselves.
	GenerateMessage(ctx context.Context, history *ChatHistory, settings *CompletionSettings) (string, error)
}

// EmbeddingService generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type EmbeddingService interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ImageGenerationService generates images from a text description.
// Implementations must be thread-safe for concurrent use.
type ImageGenerationService interface {
	// GenerateImage returns a URL (or data URI) for an image matching description.
	GenerateImage(ctx context.Context, description string, width, height int) (string, error)
}

// VectorCache stores embeddings keyed by model and text.
type VectorCache interface {
	// Lookup returns the cached vector for (model, text), if any.
	Lookup(ctx context.Context, model, text string) ([]float32, bool, error)

	// Store caches vector for (model, text).
	Store(ctx context.Context, model, text string, vector []float32) error
}
