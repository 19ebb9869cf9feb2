// OpenAI embedding adapter.
// Calls POST {base}/embeddings with a batch of inputs; the API returns one
// vector per input, indexed in request order.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

const openAIDimensions = 1536 // text-embedding-3-small output size

// OpenAIEmbedder implements Embedder against the OpenAI embeddings API.
type OpenAIEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIEmbedder creates an OpenAIEmbedder with a 30s default timeout.
// The API key is checked at call time so a keyless process can still start
// with the Ollama provider as default.
func NewOpenAIEmbedder(baseURL, apiKey, model string) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// EmbedOne embeds a single text.
func (e *OpenAIEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one API call, preserving input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("openai embed: %w", ErrMissingAPIKey)
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(openAIEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, err
	}

	url := e.baseURL + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai embed: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openai embed: status %d: %s: %w", resp.StatusCode, msg, ErrUpstream)
	}

	var openAIResp openAIEmbedResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&openAIResp); decodeErr != nil {
		return nil, fmt.Errorf("openai embed: decode response: %w", decodeErr)
	}
	if len(openAIResp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: got %d vectors for %d inputs: %w", len(openAIResp.Data), len(texts), ErrUpstream)
	}

	// The API documents data[] as request-ordered but carries an explicit
	// index field; sort on it rather than trust response ordering.
	sort.Slice(openAIResp.Data, func(i, j int) bool {
		return openAIResp.Data[i].Index < openAIResp.Data[j].Index
	})

	embeddings := make([][]float32, len(texts))
	for i, d := range openAIResp.Data {
		if len(d.Embedding) != openAIDimensions {
			return nil, fmt.Errorf("openai embed: got %d dims, want %d: %w", len(d.Embedding), openAIDimensions, ErrUpstream)
		}
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// Dimensions returns the fixed output vector length.
func (e *OpenAIEmbedder) Dimensions() int {
	return openAIDimensions
}
