// Ollama embedding adapter.
// Calls the local Ollama REST API: POST /api/embeddings, one call per text
// (Ollama does not support batch embeddings in a single call).
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const ollamaDimensions = 768 // nomic-embed-text output size

// OllamaEmbedder implements Embedder against a running Ollama instance.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaEmbedder creates an OllamaEmbedder with a 30s default timeout.
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbedOne embeds a single text via POST /api/embeddings.
func (e *OllamaEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	url := e.baseURL + "/api/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama embed: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ollama embed: status %d: %s: %w", resp.StatusCode, msg, ErrUpstream)
	}

	var ollamaResp ollamaEmbedResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&ollamaResp); decodeErr != nil {
		return nil, fmt.Errorf("ollama embed: decode response: %w", decodeErr)
	}
	if len(ollamaResp.Embedding) != ollamaDimensions {
		return nil, fmt.Errorf("ollama embed: got %d dims, want %d: %w", len(ollamaResp.Embedding), ollamaDimensions, ErrUpstream)
	}
	return ollamaResp.Embedding, nil
}

// EmbedBatch embeds each text with one /api/embeddings call, in input order.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.EmbedOne(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, vec)
	}
	return embeddings, nil
}

// Dimensions returns the fixed output vector length.
func (e *OllamaEmbedder) Dimensions() int {
	return ollamaDimensions
}
