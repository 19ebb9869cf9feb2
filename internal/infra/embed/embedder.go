// Package embed defines the embedding provider abstraction and its HTTP
// adapters. Providers differ in output dimensionality and are selected by
// configuration, never by runtime type inspection.
package embed

import (
	"context"
	"errors"
	"fmt"
)

// Provider identifiers. These are configuration values, stored alongside
// each corpus record so vectors are never compared across providers.
const (
	ProviderOllama = "ollama" // nomic-embed-text, 768 dims
	ProviderOpenAI = "openai" // text-embedding-3-small, 1536 dims
)

// Sentinel errors for classification by callers.
var (
	// ErrMissingAPIKey means the provider requires a credential that is
	// not configured. Not retried.
	ErrMissingAPIKey = errors.New("embedding API key not configured")

	// ErrUpstream wraps a non-success response from the embedding API.
	ErrUpstream = errors.New("embedding provider upstream error")
)

// Embedder turns text into fixed-dimension float vectors.
// Implementations hold a reusable HTTP client; one network call per
// invocation, no internal retry.
type Embedder interface {
	// EmbedOne embeds a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts preserving input order; the result has
	// exactly one vector per input text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length this provider produces.
	Dimensions() int
}

// Registry resolves a configured provider id to its Embedder.
// Handles are constructed once at process start and shared across turns.
type Registry struct {
	embedders       map[string]Embedder
	defaultProvider string
}

// NewRegistry creates a Registry with an initial set of embedders and a
// default provider id.
func NewRegistry(embedders map[string]Embedder, defaultProvider string) *Registry {
	es := make(map[string]Embedder, len(embedders))
	for k, v := range embedders {
		es[k] = v
	}
	return &Registry{embedders: es, defaultProvider: defaultProvider}
}

// Register adds (or replaces) an embedder under the given provider id.
func (r *Registry) Register(id string, e Embedder) {
	r.embedders[id] = e
}

// Resolve returns the embedder for the given provider id, or the default
// embedder when id is empty. Unknown ids are an error.
func (r *Registry) Resolve(id string) (Embedder, error) {
	if id == "" {
		id = r.defaultProvider
	}
	e, ok := r.embedders[id]
	if !ok {
		return nil, fmt.Errorf("embed registry: provider %q not registered", id)
	}
	return e, nil
}

// Default returns the default provider id.
func (r *Registry) Default() string {
	return r.defaultProvider
}
