package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/aikernel/ai"
	"github.com/tmc/langchaingo/llms"
)

// ErrEmptyResponse is returned when the model produced no choices.
var ErrEmptyResponse = errors.New("empty response from model")

// TextCompletion implements ai.TextCompletionService.
type TextCompletion struct {
	model  llms.Model
	logger *slog.Logger
}

var _ ai.TextCompletionService = (*TextCompletion)(nil)

// NewTextCompletion wraps a langchaingo model.
func NewTextCompletion(model llms.Model) *TextCompletion {
	return &TextCompletion{
		model:  model,
		logger: slog.Default().With("component", "openai-text"),
	}
}

// Complete sends prompt as a single human message.
func (t *TextCompletion) Complete(ctx context.Context, prompt string, settings *ai.CompletionSettings) (string, error) {
	t.logger.Debug("completing prompt", "length", len(prompt))

	out, err := llms.GenerateFromSinglePrompt(ctx, t.model, prompt, callOptions(settings)...)
	if err != nil {
		t.logger.Error("failed to complete prompt", "err", err)
		return "", err
	}
	return out, nil
}

// ChatCompletion implements ai.ChatCompletionService. Chat models also
// serve plain prompts, so it satisfies ai.TextCompletionService as well.
type ChatCompletion struct {
	model  llms.Model
	logger *slog.Logger
}

var (
	_ ai.ChatCompletionService = (*ChatCompletion)(nil)
	_ ai.TextCompletionService = (*ChatCompletion)(nil)
)

// NewChatCompletion wraps a langchaingo model.
func NewChatCompletion(model llms.Model) *ChatCompletion {
	return &ChatCompletion{
		model:  model,
		logger: slog.Default().With("component", "openai-chat"),
	}
}

// NewChat starts a history seeded with instructions.
func (c *ChatCompletion) NewChat(instructions string) *ai.ChatHistory {
	return ai.NewChatHistory(instructions)
}

// GenerateMessage returns the model's next assistant message for history.
func (c *ChatCompletion) GenerateMessage(ctx context.Context, history *ai.ChatHistory, settings *ai.CompletionSettings) (string, error) {
	content, err := toMessageContent(history)
	if err != nil {
		return "", err
	}
	c.logger.Debug("generating chat message", "messages", len(content))

	response, err := c.model.GenerateContent(ctx, content, callOptions(settings)...)
	if err != nil {
		c.logger.Error("failed to generate content", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ErrEmptyResponse
	}
	return response.Choices[0].Content, nil
}

// Complete sends prompt as a one-message chat.
func (c *ChatCompletion) Complete(ctx context.Context, prompt string, settings *ai.CompletionSettings) (string, error) {
	history := c.NewChat("")
	history.AddUserMessage(prompt)
	return c.GenerateMessage(ctx, history, settings)
}

func toMessageContent(history *ai.ChatHistory) ([]llms.MessageContent, error) {
	content := make([]llms.MessageContent, 0, len(history.Messages))
	for _, msg := range history.Messages {
		var role llms.ChatMessageType
		switch msg.Role {
		case ai.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case ai.RoleUser:
			role = llms.ChatMessageTypeHuman
		case ai.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			return nil, fmt.Errorf("unknown chat role %q", msg.Role)
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}
	return content, nil
}
