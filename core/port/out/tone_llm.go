package out

import "context"

// Chat roles understood by LLMClient.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one message of a chat completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// LLMClient completes a chat conversation and returns the assistant reply.
type LLMClient interface {
	CompleteChat(ctx context.Context, messages []ChatMessage) (string, error)
}
