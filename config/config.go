// Package config loads service definitions from YAML and turns them into
// kernel extensions.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/ai/mock"
	"github.com/poiesic/aikernel/ai/openai"
	"github.com/poiesic/aikernel/kernel"
	"github.com/poiesic/aikernel/registry"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration file fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Backends accepted in ServiceSpec.Backend.
const (
	BackendOpenAI = "openai"
	BackendMock   = "mock"
)

// File is the top-level configuration document.
type File struct {
	// CacheDir enables the persistent embedding cache when set.
	CacheDir string        `yaml:"cache_dir"`
	Services []ServiceSpec `yaml:"services"`
}

// ServiceSpec describes one service registration.
type ServiceSpec struct {
	Capability string `yaml:"capability"`
	ID         string `yaml:"id,omitempty"`
	Default    bool   `yaml:"default"`
	// AlsoAsTextCompletion applies to chat services; unset means true.
	AlsoAsTextCompletion *bool  `yaml:"also_as_text_completion,omitempty"`
	Backend              string `yaml:"backend,omitempty"`
	Host                 string `yaml:"host,omitempty"`
	// APIType selects the openai (default), azure or azure_ad flavor. Azure
	// services use Host as the resource endpoint and Model as the deployment.
	APIType    string `yaml:"api_type,omitempty"`
	APIVersion string `yaml:"api_version,omitempty"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv    string `yaml:"api_key_env,omitempty"`
	Organization string `yaml:"organization,omitempty"`
	Model        string `yaml:"model,omitempty"`
	Resilient    bool   `yaml:"resilient"`
	// MaxConcurrent caps in-flight calls when Resilient is set.
	MaxConcurrent int `yaml:"max_concurrent,omitempty"`
	// Cache enables the embedding cache for this service when the file has
	// a cache_dir. Unset means true.
	Cache *bool `yaml:"cache,omitempty"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every service definition.
func (f *File) Validate() error {
	type key struct {
		capability registry.Capability
		id         string
	}
	seen := make(map[key]int)
	var errs []error

	for i := range f.Services {
		s := &f.Services[i]
		capability, ok := ai.ParseCapability(s.Capability)
		if !ok {
			errs = append(errs, fmt.Errorf("services[%d]: unknown capability %q", i, s.Capability))
			continue
		}
		switch s.backend() {
		case BackendMock:
		case BackendOpenAI:
			if s.Model == "" {
				errs = append(errs, fmt.Errorf("services[%d]: model is required", i))
			}
			errs = append(errs, s.validateAPIType(i, capability)...)
		default:
			errs = append(errs, fmt.Errorf("services[%d]: unknown backend %q", i, s.Backend))
		}
		if s.MaxConcurrent < 0 {
			errs = append(errs, fmt.Errorf("services[%d]: max_concurrent must not be negative", i))
		}
		keys := []key{{capability, s.ID}}
		if s.fansOut(capability) {
			keys = append(keys, key{ai.TextCompletion, s.ID})
		}
		for _, k := range keys {
			if prev, ok := seen[k]; ok {
				errs = append(errs, fmt.Errorf("services[%d]: duplicates services[%d] (%s %q)", i, prev, k.capability, s.ID))
			}
			seen[k] = i
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Extensions returns one builder extension per service, in file order.
// Embedding services use cache when it is non-nil.
func (f *File) Extensions(cache ai.VectorCache) ([]kernel.Extension, error) {
	exts := make([]kernel.Extension, 0, len(f.Services))
	for i := range f.Services {
		ext, err := f.Services[i].Extension(cache)
		if err != nil {
			return nil, fmt.Errorf("services[%d]: %w", i, err)
		}
		exts = append(exts, ext)
	}
	return exts, nil
}

// fansOut reports whether the service is also registered for text completion.
func (s *ServiceSpec) fansOut(capability registry.Capability) bool {
	return capability == ai.ChatCompletion && (s.AlsoAsTextCompletion == nil || *s.AlsoAsTextCompletion)
}

func (s *ServiceSpec) validateAPIType(i int, capability registry.Capability) []error {
	switch s.APIType {
	case "", ai.APITypeOpenAI:
		return nil
	case ai.APITypeAzure, ai.APITypeAzureAD:
		var errs []error
		if s.Host == "" {
			errs = append(errs, fmt.Errorf("services[%d]: host is required for %s", i, s.APIType))
		}
		if s.APIKeyEnv == "" {
			errs = append(errs, fmt.Errorf("services[%d]: api_key_env is required for %s", i, s.APIType))
		}
		if capability == ai.ImageGeneration {
			errs = append(errs, fmt.Errorf("services[%d]: image generation is not supported for %s", i, s.APIType))
		}
		return errs
	default:
		return []error{fmt.Errorf("services[%d]: unknown api_type %q", i, s.APIType)}
	}
}

func (s *ServiceSpec) backend() string {
	if s.Backend == "" {
		return BackendOpenAI
	}
	return s.Backend
}

// ServiceOptions converts the registration settings to ai.ServiceOptions.
func (s *ServiceSpec) ServiceOptions(cache ai.VectorCache) []ai.ServiceOption {
	opts := []ai.ServiceOption{
		ai.SetDefault(s.Default),
		ai.WithResilience(s.Resilient),
		ai.WithMaxConcurrent(s.MaxConcurrent),
	}
	if s.ID != "" {
		opts = append(opts, ai.WithServiceID(s.ID))
	}
	if s.AlsoAsTextCompletion != nil {
		opts = append(opts, ai.AlsoAsTextCompletion(*s.AlsoAsTextCompletion))
	}
	if cache != nil && (s.Cache == nil || *s.Cache) {
		opts = append(opts, ai.WithVectorCache(cache))
	}
	return opts
}

// AIConfig builds the vendor configuration, reading the API key from the
// environment.
func (s *ServiceSpec) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithTextModel(s.Model),
		ai.WithChatModel(s.Model),
		ai.WithEmbeddingModel(s.Model),
		ai.WithImageModel(s.Model),
	}
	if s.Host != "" {
		opts = append(opts, ai.WithHost(s.Host))
	}
	if s.APIKeyEnv != "" {
		opts = append(opts, ai.WithAPIKey(os.Getenv(s.APIKeyEnv)))
	}
	if s.Organization != "" {
		opts = append(opts, ai.WithOrganization(s.Organization))
	}
	if s.APIType != "" {
		opts = append(opts, ai.WithAPIType(s.APIType))
	}
	if s.APIVersion != "" {
		opts = append(opts, ai.WithAPIVersion(s.APIVersion))
	}
	return ai.NewConfig(opts...)
}

// Extension returns the builder extension registering this service.
func (s *ServiceSpec) Extension(cache ai.VectorCache) (kernel.Extension, error) {
	capability, ok := ai.ParseCapability(s.Capability)
	if !ok {
		return nil, fmt.Errorf("%w: unknown capability %q", ErrInvalidConfig, s.Capability)
	}
	opts := s.ServiceOptions(cache)

	if s.backend() == BackendMock {
		switch capability {
		case ai.TextCompletion:
			return mock.TextCompletionService(mock.NewMockTextCompletion(), opts...), nil
		case ai.ChatCompletion:
			return mock.ChatCompletionService(mock.NewMockChatCompletion(), opts...), nil
		case ai.EmbeddingGeneration:
			model := s.Model
			if model == "" {
				model = "mock"
			}
			return mock.EmbeddingService(mock.NewMockEmbedder(), model, opts...), nil
		case ai.ImageGeneration:
			return mock.ImageGenerationService(mock.NewMockImageGenerator(), opts...), nil
		}
	}

	cfg := s.AIConfig()
	switch capability {
	case ai.TextCompletion:
		return openai.TextCompletionService(cfg, opts...), nil
	case ai.ChatCompletion:
		return openai.ChatCompletionService(cfg, opts...), nil
	case ai.EmbeddingGeneration:
		return openai.EmbeddingService(cfg, opts...), nil
	case ai.ImageGeneration:
		return openai.ImageGenerationService(cfg, opts...), nil
	}
	return nil, fmt.Errorf("%w: unsupported capability %q", ErrInvalidConfig, capability)
}
