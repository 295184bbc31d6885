package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/aikernel/ai"
)

// ImageGenerator implements ai.ImageGenerationService against the
// /images/generations endpoint.
type ImageGenerator struct {
	baseURL    string
	apiKey     string
	org        string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ai.ImageGenerationService = (*ImageGenerator)(nil)

type imageRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// NewImageGenerator creates an image generator from a validated config.
func NewImageGenerator(config *ai.Config, httpClient *http.Client) *ImageGenerator {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ImageGenerator{
		baseURL:    config.Host,
		apiKey:     config.Token(),
		org:        config.Organization,
		model:      config.ImageModel,
		httpClient: httpClient,
		logger:     slog.Default().With("component", "openai-image"),
	}
}

// GenerateImage requests one image and returns its URL, or a data URI when
// the server returns base64 content.
func (g *ImageGenerator) GenerateImage(ctx context.Context, description string, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("invalid image size %dx%d", width, height)
	}
	body, err := json.Marshal(imageRequest{
		Model:  g.model,
		Prompt: description,
		N:      1,
		Size:   fmt.Sprintf("%dx%d", width, height),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if g.org != "" {
		req.Header.Set("OpenAI-Organization", g.org)
	}

	g.logger.Debug("requesting image", "size", width*height)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var out imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if len(out.Data) == 0 {
		return "", ErrEmptyResponse
	}
	if out.Data[0].URL != "" {
		return out.Data[0].URL, nil
	}
	if out.Data[0].B64JSON != "" {
		return "data:image/png;base64," + out.Data[0].B64JSON, nil
	}
	return "", ErrEmptyResponse
}
