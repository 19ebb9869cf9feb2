// Package llm defines the model-agnostic generation provider abstraction.
// All types here are shared between the provider interface and adapters.
package llm

import "errors"

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

// ChatRequest is the input for a chat completion.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// ChatResponse is the output from a completed chat call. For streaming
// calls it carries the accumulated text after the stream finishes.
type ChatResponse struct {
	Content    string // The assistant message text.
	StopReason string // "stop" | "length" | "error"
	Tokens     int    // Total tokens consumed (prompt + completion), when reported.
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string // e.g. "llama3.2:3b", "gpt-4o-mini"
	Provider  string // e.g. "ollama", "openai"
	Version   string
	MaxTokens int // Maximum context window size.
}

// Sentinel errors for classification by callers.
var (
	// ErrMissingAPIKey means the provider requires a credential that is
	// not configured. Not retried.
	ErrMissingAPIKey = errors.New("generation API key not configured")

	// ErrUpstream wraps a non-success response from the generation API.
	ErrUpstream = errors.New("generation provider upstream error")

	// ErrStreamAborted means the generation stream ended before the
	// provider signalled completion.
	ErrStreamAborted = errors.New("generation stream ended unexpectedly")
)
