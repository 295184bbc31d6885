package mock

import (
	"context"
	"sync"

	"github.com/poiesic/aikernel/ai"
)

// MockTextCompletion is a test double for ai.TextCompletionService.
type MockTextCompletion struct {
	// CompleteFunc is called by Complete if set.
	// If nil, the prompt is echoed back.
	CompleteFunc func(ctx context.Context, prompt string, settings *ai.CompletionSettings) (string, error)

	mu        sync.Mutex
	callCount int
	prompts   []string
}

// NewMockTextCompletion creates a mock text completion that echoes prompts.
func NewMockTextCompletion() *MockTextCompletion {
	return &MockTextCompletion{}
}

// WithCompleteFunc sets the Complete behavior.
func (m *MockTextCompletion) WithCompleteFunc(fn func(ctx context.Context, prompt string, settings *ai.CompletionSettings) (string, error)) *MockTextCompletion {
	m.CompleteFunc = fn
	return m
}

// Complete records the prompt and returns the injected or echoed result.
func (m *MockTextCompletion) Complete(ctx context.Context, prompt string, settings *ai.CompletionSettings) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, settings)
	}
	return prompt, nil
}

// CallCount returns the number of Complete calls.
func (m *MockTextCompletion) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns the prompts received, in order.
func (m *MockTextCompletion) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// MockChatCompletion is a test double for ai.ChatCompletionService.
// It also satisfies ai.TextCompletionService by treating the prompt as a
// single user message.
type MockChatCompletion struct {
	// GenerateMessageFunc is called by GenerateMessage if set.
	// If nil, the last user message is echoed back.
	GenerateMessageFunc func(ctx context.Context, history *ai.ChatHistory, settings *ai.CompletionSettings) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockChatCompletion creates a mock chat completion that echoes the last
// user message.
func NewMockChatCompletion() *MockChatCompletion {
	return &MockChatCompletion{}
}

// WithGenerateMessageFunc sets the GenerateMessage behavior.
func (m *MockChatCompletion) WithGenerateMessageFunc(fn func(ctx context.Context, history *ai.ChatHistory, settings *ai.CompletionSettings) (string, error)) *MockChatCompletion {
	m.GenerateMessageFunc = fn
	return m
}

// NewChat starts a history seeded with instructions.
func (m *MockChatCompletion) NewChat(instructions string) *ai.ChatHistory {
	return ai.NewChatHistory(instructions)
}

// GenerateMessage returns the injected result or echoes the last user message.
func (m *MockChatCompletion) GenerateMessage(ctx context.Context, history *ai.ChatHistory, settings *ai.CompletionSettings) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.GenerateMessageFunc != nil {
		return m.GenerateMessageFunc(ctx, history, settings)
	}
	for i := len(history.Messages) - 1; i >= 0; i-- {
		if history.Messages[i].Role == ai.RoleUser {
			return history.Messages[i].Content, nil
		}
	}
	return "", nil
}

// Complete sends prompt as a one-message chat.
func (m *MockChatCompletion) Complete(ctx context.Context, prompt string, settings *ai.CompletionSettings) (string, error) {
	history := m.NewChat("")
	history.AddUserMessage(prompt)
	return m.GenerateMessage(ctx, history, settings)
}

// CallCount returns the number of GenerateMessage calls, including those
// made through Complete.
func (m *MockChatCompletion) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
