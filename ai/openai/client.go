package openai

import (
	"net/http"

	"github.com/poiesic/aikernel/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// newLLM creates a langchaingo client for model.
func newLLM(config *ai.Config, model string, httpClient *http.Client) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token()),
		openai.WithModel(model),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	}
	if config.IsAzure() {
		apiType := openai.APITypeAzure
		if config.APIType == ai.APITypeAzureAD {
			apiType = openai.APITypeAzureAD
		}
		version := config.APIVersion
		if version == "" {
			version = openai.DefaultAPIVersion
		}
		opts = append(opts, openai.WithAPIType(apiType), openai.WithAPIVersion(version))
	}
	if config.Organization != "" {
		opts = append(opts, openai.WithOrganization(config.Organization))
	}
	if httpClient != nil {
		opts = append(opts, openai.WithHTTPClient(httpClient))
	}
	return openai.New(opts...)
}

// callOptions converts completion settings to langchaingo call options.
// Zero values are left to the server defaults.
func callOptions(settings *ai.CompletionSettings) []llms.CallOption {
	if settings == nil {
		settings = ai.DefaultCompletionSettings()
	}
	opts := []llms.CallOption{llms.WithTemperature(settings.Temperature)}
	if settings.TopP > 0 {
		opts = append(opts, llms.WithTopP(settings.TopP))
	}
	if settings.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(settings.MaxTokens))
	}
	if settings.PresencePenalty != 0 {
		opts = append(opts, llms.WithPresencePenalty(settings.PresencePenalty))
	}
	if settings.FrequencyPenalty != 0 {
		opts = append(opts, llms.WithFrequencyPenalty(settings.FrequencyPenalty))
	}
	if len(settings.StopSequences) > 0 {
		opts = append(opts, llms.WithStopWords(settings.StopSequences))
	}
	return opts
}
