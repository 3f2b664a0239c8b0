package llm

import "context"

// Provider is a chat-capable text generation backend.
type Provider interface {
	GetModel() string
	Generate(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions carries per-request generation knobs. Zero values are
// omitted from the request so the backend's defaults apply.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
}

var SupportedProviders = []string{"ollama", "openai"}
