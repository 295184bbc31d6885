package ai

import "github.com/poiesic/aikernel/registry"

// Capabilities hosted by a kernel.
const (
	TextCompletion      registry.Capability = "text-completion"
	ChatCompletion      registry.Capability = "chat-completion"
	EmbeddingGeneration registry.Capability = "embedding-generation"
	ImageGeneration     registry.Capability = "image-generation"
)

// Capabilities lists every capability the ai package defines.
var Capabilities = []registry.Capability{
	TextCompletion,
	ChatCompletion,
	EmbeddingGeneration,
	ImageGeneration,
}

// ParseCapability maps a capability name to its identifier.
func ParseCapability(name string) (registry.Capability, bool) {
	for _, c := range Capabilities {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// AuthorRole identifies who wrote a chat message.
type AuthorRole string

const (
	RoleSystem    AuthorRole = "system"
	RoleUser      AuthorRole = "user"
	RoleAssistant AuthorRole = "assistant"
)

// ChatMessage is a single message in a chat history.
type ChatMessage struct {
	Role    AuthorRole
	Content string
}

// ChatHistory is an ordered list of chat messages.
type ChatHistory struct {
	Messages []ChatMessage
}

// NewChatHistory creates a history, seeded with a system message when
// instructions is non-empty.
func NewChatHistory(instructions string) *ChatHistory {
	h := &ChatHistory{}
	if instructions != "" {
		h.AddSystemMessage(instructions)
	}
	return h
}

// AddMessage appends a message with the given role.
func (h *ChatHistory) AddMessage(role AuthorRole, content string) {
	h.Messages = append(h.Messages, ChatMessage{Role: role, Content: content})
}

// AddSystemMessage appends a system message.
func (h *ChatHistory) AddSystemMessage(content string) {
	h.AddMessage(RoleSystem, content)
}

// AddUserMessage appends a user message.
func (h *ChatHistory) AddUserMessage(content string) {
	h.AddMessage(RoleUser, content)
}

// AddAssistantMessage appends an assistant message.
func (h *ChatHistory) AddAssistantMessage(content string) {
	h.AddMessage(RoleAssistant, content)
}

// CompletionSettings tunes a completion request. Zero values leave the
// corresponding parameter to the backend.
type CompletionSettings struct {
	Temperature      float64
	TopP             float64
	PresencePenalty  float64
	FrequencyPenalty float64
	MaxTokens        int
	StopSequences    []string
}

// DefaultCompletionSettings returns the settings used when none are given.
func DefaultCompletionSettings() *CompletionSettings {
	return &CompletionSettings{
		Temperature: 0.0,
		TopP:        0.0,
		MaxTokens:   256,
	}
}
