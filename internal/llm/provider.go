// Package llm holds the chat-completions collaborator used for silent
// timeline extraction: given a response text, a dedicated model call
// returns a JSON array of dated legal events.
package llm

import "context"

// Provider is the interface for chat-completion backends.
type Provider interface {
	// Name returns the provider name (e.g. "openai", "albert")
	Name() string

	// Available returns true if the provider is configured and ready
	Available() bool

	// Generate sends a prompt and returns the response
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a prompt request to a provider.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Model        string // overrides the provider default when set
	MaxTokens    int
	Temperature  float64
}

// Response is the provider's answer.
type Response struct {
	Content string
	Model   string
}
