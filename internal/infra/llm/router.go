// Model routing. The Router maps a requested model id to the provider
// family that serves it, so callers name a model and never a vendor.
package llm

import "strings"

// ollamaFamilies are model-id prefixes served by local Ollama.
var ollamaFamilies = []string{"llama", "mistral", "qwen", "gemma", "phi", "deepseek"}

// Router selects a ChatProvider for a model id. Unrecognized ids fall
// back to the configured default provider and its default model.
type Router struct {
	ollama       ChatProvider
	openai       ChatProvider
	defaultProv  ChatProvider
	defaultModel string
}

// NewRouter creates a Router over the two provider families. defaultProv
// must be one of the two providers; defaultModel is substituted when the
// requested id is unrecognized or empty.
func NewRouter(ollama, openai ChatProvider, defaultProv ChatProvider, defaultModel string) *Router {
	return &Router{
		ollama:       ollama,
		openai:       openai,
		defaultProv:  defaultProv,
		defaultModel: defaultModel,
	}
}

// Resolve returns the provider for modelID plus the model id to send it.
// "gpt-" prefixed ids go to OpenAI; known open-weight families go to
// Ollama; anything else resolves to the default provider and model.
func (r *Router) Resolve(modelID string) (ChatProvider, string) {
	id := strings.ToLower(strings.TrimSpace(modelID))
	if id == "" {
		return r.defaultProv, r.defaultModel
	}
	if strings.HasPrefix(id, "gpt-") {
		return r.openai, modelID
	}
	for _, fam := range ollamaFamilies {
		if strings.HasPrefix(id, fam) {
			return r.ollama, modelID
		}
	}
	return r.defaultProv, r.defaultModel
}
