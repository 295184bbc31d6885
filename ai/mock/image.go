package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
)

// MockImageGenerator is a test double for ai.ImageGenerationService.
type MockImageGenerator struct {
	// GenerateImageFunc is called by GenerateImage if set.
	GenerateImageFunc func(ctx context.Context, description string, width, height int) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockImageGenerator creates a mock image generator returning stable URLs.
func NewMockImageGenerator() *MockImageGenerator {
	return &MockImageGenerator{}
}

// GenerateImage returns a URL derived from the description hash and size.
func (m *MockImageGenerator) GenerateImage(ctx context.Context, description string, width, height int) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, description, width, height)
	}
	h := fnv.New32a()
	h.Write([]byte(description))
	return fmt.Sprintf("https://images.invalid/%08x-%dx%d.png", h.Sum32(), width, height), nil
}

// CallCount returns the number of GenerateImage calls.
func (m *MockImageGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
