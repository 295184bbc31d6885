// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ai provides abstractions for the AI services a kernel can host.
//
// This package defines the capability identifiers and service interfaces for
// text completion, chat completion, embedding generation and image
// generation. Kernel code depends on these abstractions; vendor packages
// supply the implementations and register them on a kernel.Builder.
//
// # Capabilities
//
//   - TextCompletion: one-shot prompt completion (TextCompletionService)
//   - ChatCompletion: multi-turn chat (ChatCompletionService)
//   - EmbeddingGeneration: vector embeddings (EmbeddingService)
//   - ImageGeneration: image synthesis from a description (ImageGenerationService)
//
// A chat implementation usually satisfies TextCompletionService too. Vendor
// packages declare that statically so the registry can fan the registration
// out to both capabilities.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs (OpenAI, Ollama, LocalAI, vLLM)
//   - ai/mock: test doubles for unit testing without external dependencies
//   - ai/resilient: circuit breaker and retry decorators
//   - ai/cache: persistent embedding cache decorator
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434/v1"), ai.WithChatModel("qwen2.5:3b"))
//
//	k, err := kernel.NewBuilder().
//	    With(openai.ChatCompletionService(cfg, ai.WithServiceID("local"), ai.AsDefault())).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// The chat model was fanned out to text completion as well.
//	text, err := k.TextCompletion("")
//	answer, err := text.Complete(ctx, "Why is the sky blue?", ai.DefaultCompletionSettings())
package ai
