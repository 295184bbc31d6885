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

package openai

import (
	"fmt"

	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/ai/cache"
	"github.com/poiesic/aikernel/ai/resilient"
	"github.com/poiesic/aikernel/kernel"
	"github.com/poiesic/aikernel/registry"
)

// chatCapabilities is the capability set of ChatCompletion.
var chatCapabilities = registry.Provides(ai.ChatCompletion, ai.TextCompletion)

// prepare validates a copy of config for capability so later changes by the
// caller do not affect the registration.
func prepare(config *ai.Config, capability registry.Capability) (*ai.Config, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: nil ai config", registry.ErrInvalidRegistration)
	}
	cfg := config.Clone()
	if err := cfg.ValidateFor(capability); err != nil {
		return nil, fmt.Errorf("%w: %v", registry.ErrInvalidRegistration, err)
	}
	return cfg, nil
}

// TextCompletionService registers an OpenAI-compatible text completion
// service using config.TextModel.
func TextCompletionService(config *ai.Config, opts ...ai.ServiceOption) kernel.Extension {
	return func(b *kernel.Builder) error {
		cfg, err := prepare(config, ai.TextCompletion)
		if err != nil {
			return err
		}
		o := ai.NewServiceOptions(opts...)
		factory := registry.Memoize(func() (any, error) {
			llm, err := newLLM(cfg, cfg.TextModel, o.HTTPClient)
			if err != nil {
				return nil, err
			}
			var svc ai.TextCompletionService = NewTextCompletion(llm)
			if o.Resilient {
				svc = resilient.WrapTextCompletion(svc, resilient.FromOptions(o))
			}
			return svc, nil
		})
		return b.WithAIService(ai.TextCompletion, factory, o.RegistryOptions()...).Err()
	}
}

// ChatCompletionService registers an OpenAI-compatible chat completion
// service using config.ChatModel. Unless disabled with
// ai.AlsoAsTextCompletion(false), the same registration also serves text
// completion under the same id and default flag.
func ChatCompletionService(config *ai.Config, opts ...ai.ServiceOption) kernel.Extension {
	return func(b *kernel.Builder) error {
		cfg, err := prepare(config, ai.ChatCompletion)
		if err != nil {
			return err
		}
		o := ai.NewServiceOptions(opts...)
		factory := registry.Memoize(func() (any, error) {
			llm, err := newLLM(cfg, cfg.ChatModel, o.HTTPClient)
			if err != nil {
				return nil, err
			}
			chat := NewChatCompletion(llm)
			if o.Resilient {
				return resilient.WrapChatCompletion(chat, resilient.FromOptions(o)), nil
			}
			return chat, nil
		})
		return b.WithAIServiceFanout(ai.ChatCompletion, o.Secondary(), factory, chatCapabilities, o.RegistryOptions()...).Err()
	}
}

// EmbeddingService registers an OpenAI-compatible embedding service using
// config.EmbeddingModel. With ai.WithVectorCache, vectors are cached per model.
func EmbeddingService(config *ai.Config, opts ...ai.ServiceOption) kernel.Extension {
	return func(b *kernel.Builder) error {
		cfg, err := prepare(config, ai.EmbeddingGeneration)
		if err != nil {
			return err
		}
		o := ai.NewServiceOptions(opts...)
		factory := registry.Memoize(func() (any, error) {
			llm, err := newLLM(cfg, cfg.EmbeddingModel, o.HTTPClient)
			if err != nil {
				return nil, err
			}
			embedder, err := NewEmbedder(llm)
			if err != nil {
				return nil, err
			}
			if o.VectorCache != nil {
				return cache.NewEmbedder(embedder, o.VectorCache, cfg.EmbeddingModel), nil
			}
			return embedder, nil
		})
		return b.WithAIService(ai.EmbeddingGeneration, factory, o.RegistryOptions()...).Err()
	}
}

// ImageGenerationService registers an OpenAI-compatible image generation
// service using config.ImageModel.
func ImageGenerationService(config *ai.Config, opts ...ai.ServiceOption) kernel.Extension {
	return func(b *kernel.Builder) error {
		cfg, err := prepare(config, ai.ImageGeneration)
		if err != nil {
			return err
		}
		o := ai.NewServiceOptions(opts...)
		factory := registry.Memoize(func() (any, error) {
			return NewImageGenerator(cfg, o.HTTPClient), nil
		})
		return b.WithAIService(ai.ImageGeneration, factory, o.RegistryOptions()...).Err()
	}
}

// azureConfig returns a Config for an Azure OpenAI resource.
func azureConfig(endpoint, apiKey string, opts ...ai.ConfigOption) *ai.Config {
	return ai.NewConfig(append([]ai.ConfigOption{ai.WithAzure(endpoint, apiKey)}, opts...)...)
}

// AzureTextCompletionService registers the text completion deployment
// deploymentName of the Azure OpenAI resource at endpoint.
func AzureTextCompletionService(deploymentName, endpoint, apiKey string, opts ...ai.ServiceOption) kernel.Extension {
	return TextCompletionService(azureConfig(endpoint, apiKey, ai.WithTextModel(deploymentName)), opts...)
}

// AzureChatCompletionService registers the chat completion deployment
// deploymentName of the Azure OpenAI resource at endpoint. It fans out to
// text completion like ChatCompletionService.
func AzureChatCompletionService(deploymentName, endpoint, apiKey string, opts ...ai.ServiceOption) kernel.Extension {
	return ChatCompletionService(azureConfig(endpoint, apiKey, ai.WithChatModel(deploymentName)), opts...)
}

// AzureEmbeddingService registers the embedding deployment deploymentName of
// the Azure OpenAI resource at endpoint.
func AzureEmbeddingService(deploymentName, endpoint, apiKey string, opts ...ai.ServiceOption) kernel.Extension {
	return EmbeddingService(azureConfig(endpoint, apiKey, ai.WithEmbeddingModel(deploymentName)), opts...)
}
