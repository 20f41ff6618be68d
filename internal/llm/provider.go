package llm

import "context"

// Provider is the core abstraction for LLM interaction.
// Implementations return the model's raw text; callers decode it themselves
// because well-formed JSON is never guaranteed.
type Provider interface {
	// Generate sends a prompt to the LLM and returns its raw response.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Optional.
	System string

	// Messages is the conversation history. Pipeline stages send a single
	// user message.
	Messages []Message

	// JSONMode asks the provider to emit JSON using its native response
	// format hint. It is a hint only: the output may still be malformed.
	JSONMode bool

	// MaxTokens is the maximum number of tokens in the response.
	// Zero leaves the provider default in place.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds a single-turn request for prompt.
func UserPrompt(prompt string, temperature float64, jsonMode bool) Request {
	return Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		JSONMode:    jsonMode,
		Temperature: temperature,
	}
}

// Response holds the LLM's output.
type Response struct {
	// Content is the raw text produced by the model.
	Content string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
