// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.TextCompletionService,
// ai.ChatCompletionService, ai.EmbeddingService and ai.ImageGenerationService
// for use in unit tests. The mocks allow tests to run without external AI
// service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Register a mock chat model; it is fanned out to text completion too.
//	chat := mock.NewMockChatCompletion()
//	k, err := kernel.NewBuilder().
//	    With(mock.ChatCompletionService(chat, ai.WithServiceID("gpt4"), ai.AsDefault())).
//	    Build()
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder().
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return []float32{0.1, 0.2, 0.3}, nil
//	    })
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockTextCompletion: Echoes the prompt
//   - MockChatCompletion: Echoes the last user message; also a text completion
//   - MockImageGenerator: Returns a stable URL derived from the description
package mock
