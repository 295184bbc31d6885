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

package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/aikernel/registry"
)

// API flavors understood by Config.APIType.
const (
	APITypeOpenAI  = "openai"
	APITypeAzure   = "azure"
	APITypeAzureAD = "azure_ad"
)

// Config holds connection and model settings for an AI service vendor.
type Config struct {
	// Host is the base URL for the OpenAI-compatible API.
	// Example: "http://localhost:11434/v1" for a local Ollama server,
	// "https://myresource.openai.azure.com" for Azure OpenAI
	Host string

	// APIType selects the wire flavor: APITypeOpenAI (default), APITypeAzure
	// (api-key header) or APITypeAzureAD (bearer token). For Azure the model
	// identifiers are deployment names.
	APIType string

	// APIVersion is the Azure api-version query parameter.
	// Default: "2023-05-15"
	APIVersion string

	// APIKey authenticates requests. Local servers accept any value;
	// "none" is used when empty.
	APIKey string

	// Organization is sent as the OpenAI organization header when set.
	Organization string

	// TextModel is the model identifier for text completions.
	TextModel string

	// ChatModel is the model identifier for chat completions.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	ChatModel string

	// EmbeddingModel is the model identifier for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// ImageModel is the model identifier for image generation.
	// Example: "dall-e-3"
	ImageModel string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the API base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithAPIType sets the API flavor.
func WithAPIType(apiType string) ConfigOption {
	return func(c *Config) {
		c.APIType = apiType
	}
}

// WithAPIVersion sets the Azure api-version.
func WithAPIVersion(version string) ConfigOption {
	return func(c *Config) {
		c.APIVersion = version
	}
}

// WithAzure configures an Azure OpenAI resource. Model identifiers set
// afterwards name deployments.
func WithAzure(endpoint, apiKey string) ConfigOption {
	return func(c *Config) {
		c.Host = endpoint
		c.APIKey = apiKey
		c.APIType = APITypeAzure
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithOrganization sets the organization id.
func WithOrganization(org string) ConfigOption {
	return func(c *Config) {
		c.Organization = org
	}
}

// WithTextModel sets the text completion model identifier.
func WithTextModel(model string) ConfigOption {
	return func(c *Config) {
		c.TextModel = model
	}
}

// WithChatModel sets the chat completion model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithImageModel sets the image generation model identifier.
func WithImageModel(model string) ConfigOption {
	return func(c *Config) {
		c.ImageModel = model
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		Host:           "http://localhost:11434/v1",
		TextModel:      "qwen2.5:3b",
		ChatModel:      "qwen2.5:3b",
		EmbeddingModel: "embeddinggemma",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("https://api.openai.com/v1"),
//	    WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    WithChatModel("gpt-4o-mini"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// IsAzure reports whether the configuration targets Azure OpenAI.
func (c *Config) IsAzure() bool {
	return c.APIType == APITypeAzure || c.APIType == APITypeAzureAD
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
// Azure endpoints are only stripped of a trailing slash.
func (c *Config) Normalize() {
	if c.APIType == "" {
		c.APIType = APITypeOpenAI
	}
	if c.IsAzure() {
		c.Host = strings.TrimSuffix(c.Host, "/")
		return
	}
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Token returns the API key, or "none" for servers that don't require one.
func (c *Config) Token() string {
	if c.APIKey == "" {
		return "none"
	}
	return c.APIKey
}

// Validate checks that the connection settings are present.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	switch c.APIType {
	case APITypeOpenAI:
	case APITypeAzure, APITypeAzureAD:
		if c.APIKey == "" {
			return errors.New("ai config: APIKey is required for Azure")
		}
	default:
		return fmt.Errorf("ai config: unknown APIType %q", c.APIType)
	}
	return nil
}

// ValidateFor checks the settings needed to serve capability.
func (c *Config) ValidateFor(capability registry.Capability) error {
	if err := c.Validate(); err != nil {
		return err
	}

	var model string
	switch capability {
	case TextCompletion:
		model = c.TextModel
	case ChatCompletion:
		model = c.ChatModel
	case EmbeddingGeneration:
		model = c.EmbeddingModel
	case ImageGeneration:
		if c.IsAzure() {
			return errors.New("ai config: image generation is not supported for Azure")
		}
		model = c.ImageModel
	default:
		return fmt.Errorf("ai config: unsupported capability %q", capability)
	}
	if model == "" {
		return fmt.Errorf("ai config: model for %s is required", capability)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
