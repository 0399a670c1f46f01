// Package model defines the reasoning-oracle contract and its helpers.
//
// An oracle is any text-generation service reachable through ChatModel.
// Provider adapters live in the openai, anthropic and google
// subpackages; MockChatModel serves tests. Prompt renders templates,
// Oracle ties a Prompt to a ChatModel, and StripFences cleans raw output
// before it is parsed.
package model

import "context"

// ChatModel defines the interface for LLM chat providers.
//
// Implementations convert Message values to the provider format, respect
// context cancellation and deadlines, and must be safe for concurrent use
// by independent runs. They do not retry: retry is a policy of whoever
// wraps them.
type ChatModel interface {
	// Chat sends messages to the LLM and returns its raw response.
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role identifies the message sender. Use the Role* constants.
	Role string

	// Content contains the message text.
	Content string
}

// Standard role constants for LLM conversations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatOut represents the output from an LLM chat completion.
type ChatOut struct {
	// Text is the raw generated text, fences and all.
	Text string

	// Model is the model that served the request, as reported by the
	// provider. Adapters fall back to the configured model name.
	Model string

	// Usage reports token consumption when the provider returns it.
	Usage Usage
}

// Usage is the token accounting of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
