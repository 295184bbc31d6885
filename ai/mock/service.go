package mock

import (
	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/ai/cache"
	"github.com/poiesic/aikernel/ai/resilient"
	"github.com/poiesic/aikernel/kernel"
	"github.com/poiesic/aikernel/registry"
)

// chatCapabilities is the capability set of MockChatCompletion.
var chatCapabilities = registry.Provides(ai.ChatCompletion, ai.TextCompletion)

// TextCompletionService registers svc as a text completion service.
func TextCompletionService(svc ai.TextCompletionService, opts ...ai.ServiceOption) kernel.Extension {
	return func(b *kernel.Builder) error {
		o := ai.NewServiceOptions(opts...)
		factory := registry.Memoize(func() (any, error) {
			if o.Resilient {
				return resilient.WrapTextCompletion(svc, resilient.FromOptions(o)), nil
			}
			return svc, nil
		})
		return b.WithAIService(ai.TextCompletion, factory, o.RegistryOptions()...).Err()
	}
}

// ChatCompletionService registers svc as a chat completion service and, unless
// disabled with ai.AlsoAsTextCompletion(false), as a text completion service.
func ChatCompletionService(svc *MockChatCompletion, opts ...ai.ServiceOption) kernel.Extension {
	return func(b *kernel.Builder) error {
		o := ai.NewServiceOptions(opts...)
		factory := registry.Memoize(func() (any, error) {
			if o.Resilient {
				return resilient.WrapChatCompletion(svc, resilient.FromOptions(o)), nil
			}
			return svc, nil
		})
		return b.WithAIServiceFanout(ai.ChatCompletion, o.Secondary(), factory, chatCapabilities, o.RegistryOptions()...).Err()
	}
}

// EmbeddingService registers svc as an embedding service. With
// ai.WithVectorCache the service is wrapped in a cache keyed by model.
func EmbeddingService(svc ai.EmbeddingService, model string, opts ...ai.ServiceOption) kernel.Extension {
	return func(b *kernel.Builder) error {
		o := ai.NewServiceOptions(opts...)
		factory := registry.Memoize(func() (any, error) {
			if o.VectorCache != nil {
				return cache.NewEmbedder(svc, o.VectorCache, model), nil
			}
			return svc, nil
		})
		return b.WithAIService(ai.EmbeddingGeneration, factory, o.RegistryOptions()...).Err()
	}
}

// ImageGenerationService registers svc as an image generation service.
func ImageGenerationService(svc ai.ImageGenerationService, opts ...ai.ServiceOption) kernel.Extension {
	return func(b *kernel.Builder) error {
		o := ai.NewServiceOptions(opts...)
		factory := registry.Memoize(func() (any, error) {
			return svc, nil
		})
		return b.WithAIService(ai.ImageGeneration, factory, o.RegistryOptions()...).Err()
	}
}
