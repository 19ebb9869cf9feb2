// OpenAI-compatible HTTP adapter.
// OpenAIProvider speaks the /v1/chat/completions API. Streaming uses
// server-sent events: each event line is "data: {json}", terminated by
// "data: [DONE]".
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIProvider implements ChatProvider against the OpenAI REST API
// (or any API-compatible endpoint).
type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider creates an OpenAIProvider. baseURL should include the
// version prefix, e.g. "https://api.openai.com/v1". The API key may be
// empty at construction time; calls fail with ErrMissingAPIKey.
func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// ─── internal OpenAI JSON types ──────────────────────────────────────────────

type openAIChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// ─── ChatProvider implementation ─────────────────────────────────────────────

// ChatCompletion performs a non-streaming chat via POST /chat/completions.
func (p *OpenAIProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	respBody, err := p.postChat(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer respBody.Close() //nolint:errcheck

	var apiResp openAIChatResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&apiResp); decodeErr != nil {
		return nil, fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat: empty choices: %w", ErrUpstream)
	}
	return &ChatResponse{
		Content:    apiResp.Choices[0].Message.Content,
		StopReason: apiResp.Choices[0].FinishReason,
		Tokens:     apiResp.Usage.TotalTokens,
	}, nil
}

// ChatCompletionStream performs a streaming chat over SSE.
func (p *OpenAIProvider) ChatCompletionStream(ctx context.Context, req ChatRequest, fn DeltaFunc) (*ChatResponse, error) {
	respBody, err := p.postChat(ctx, req, true)
	if err != nil {
		return nil, err
	}
	defer respBody.Close() //nolint:errcheck

	var content strings.Builder
	stopReason := ""
	sawDone := false

	scanner := bufio.NewScanner(respBody)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			sawDone = true
			break
		}

		var chunk openAIStreamChunk
		if decodeErr := json.Unmarshal([]byte(payload), &chunk); decodeErr != nil {
			return nil, fmt.Errorf("openai chat stream: decode chunk: %w", decodeErr)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			content.WriteString(choice.Delta.Content)
			if fnErr := fn(choice.Delta.Content); fnErr != nil {
				return nil, fnErr
			}
		}
		if choice.FinishReason != "" {
			stopReason = choice.FinishReason
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, fmt.Errorf("openai chat stream: %w", scanErr)
	}
	if !sawDone {
		return nil, fmt.Errorf("openai chat stream: %w", ErrStreamAborted)
	}
	return &ChatResponse{
		Content:    content.String(),
		StopReason: stopReason,
	}, nil
}

// postChat sends the chat request and returns the raw response body.
func (p *OpenAIProvider) postChat(ctx context.Context, req ChatRequest, stream bool) (io.ReadCloser, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openai chat: %w", ErrMissingAPIKey)
	}
	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(openAIChatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, err
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai chat: build request: %w", err)
	}
	httpReq.Header.Set(headerContentType, mimeJSON)
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close() //nolint:errcheck
		return nil, fmt.Errorf("openai chat: status %d: %s: %w", resp.StatusCode, msg, ErrUpstream)
	}
	return resp.Body, nil
}

// ModelInfo returns static metadata for this provider/model.
func (p *OpenAIProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "openai",
		Version:   "v1",
		MaxTokens: 128000,
	}
}

// HealthCheck calls GET /models — returns nil if the API is reachable
// and the key is accepted.
func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	if p.apiKey == "" {
		return fmt.Errorf("openai healthcheck: %w", ErrMissingAPIKey)
	}
	url := p.baseURL + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("openai healthcheck: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai healthcheck: status %d", resp.StatusCode)
	}
	return nil
}
