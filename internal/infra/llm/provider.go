// ChatProvider interface. Adapters (Ollama, OpenAI) implement this so the
// application is never coupled to a specific LLM vendor.
package llm

import "context"

// DeltaFunc receives incremental text chunks in generation order.
// Returning an error aborts the stream.
type DeltaFunc func(delta string) error

// ChatProvider is the model-agnostic interface for generation.
type ChatProvider interface {
	// ChatCompletion performs a blocking, non-streaming chat completion.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ChatCompletionStream performs a streaming completion, invoking fn
	// for every delta. The returned response carries the accumulated
	// content and final stop reason.
	ChatCompletionStream(ctx context.Context, req ChatRequest, fn DeltaFunc) (*ChatResponse, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}
