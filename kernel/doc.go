// Package kernel hosts AI services and skills behind a fluent builder.
//
// A Builder registers AI-service factories into a registry.Registry keyed by
// capability and optional service id, collects skills, and produces a Kernel.
// Vendor packages contribute registrations as Extensions:
//
//	k, err := kernel.NewBuilder().
//	    With(openai.ChatCompletionService(cfg, ai.WithServiceID("gpt4"), ai.AsDefault())).
//	    With(openai.EmbeddingService(cfg)).
//	    WithSkill("file", fileio.New()).
//	    Build()
//
// Registration errors do not break the chain; the first one is returned by
// Build. Services are constructed lazily when resolved through the typed
// accessors (TextCompletion, ChatCompletion, Embedding, ImageGeneration) or
// the generic Service function.
package kernel
