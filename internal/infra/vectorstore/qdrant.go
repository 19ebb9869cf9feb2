// Qdrant REST adapter. Talks to the Qdrant points API over HTTP; no
// collection management, the collection is provisioned by the ingestion
// pipeline.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arielvoskov/reviewlens/internal/domain/review"
)

// QdrantStore implements Store against a Qdrant instance.
type QdrantStore struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
}

// NewQdrantStore creates a QdrantStore for one collection.
func NewQdrantStore(baseURL, apiKey, collection string) *QdrantStore {
	return &QdrantStore{
		baseURL:    baseURL,
		apiKey:     apiKey,
		collection: collection,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ─── wire types ──────────────────────────────────────────────────────────────

type qdrantMatchCondition struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

type qdrantFilter struct {
	Must []qdrantMatchCondition `json:"must"`
}

type qdrantSearchRequest struct {
	Vector      []float32     `json:"vector"`
	Limit       int           `json:"limit"`
	WithPayload bool          `json:"with_payload"`
	Filter      *qdrantFilter `json:"filter,omitempty"`
}

type qdrantScoredPoint struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type qdrantSearchResponse struct {
	Result []qdrantScoredPoint `json:"result"`
}

type qdrantPointResponse struct {
	Result *struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// ─── Store implementation ────────────────────────────────────────────────────

// Query searches the collection with a must-match filter on the review
// metadata. Qdrant reports cosine similarity scores; these are converted
// to cosine distance (1 - score) so results stay ordered by ascending
// distance.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, filter Filter, limit int) ([]Match, error) {
	req := qdrantSearchRequest{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
		Filter:      buildFilter(filter),
	}

	path := fmt.Sprintf("/collections/%s/points/search", s.collection)
	respBody, err := s.doRequest(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, err
	}

	var resp qdrantSearchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("qdrant search: parse response: %w", err)
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, pt := range resp.Result {
		matches = append(matches, Match{
			Review:   reviewFromPayload(pt.ID, pt.Payload),
			Distance: 1 - pt.Score,
		})
	}
	return matches, nil
}

// GetReview fetches a point with its vector by id.
func (s *QdrantStore) GetReview(ctx context.Context, id string) (review.Review, []float32, error) {
	path := fmt.Sprintf("/collections/%s/points/%s", s.collection, id)
	respBody, err := s.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return review.Review{}, nil, err
	}

	var resp qdrantPointResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return review.Review{}, nil, fmt.Errorf("qdrant get point: parse response: %w", err)
	}
	if resp.Result == nil {
		return review.Review{}, nil, fmt.Errorf("qdrant get point %q: %w", id, ErrNotFound)
	}
	return reviewFromPayload(resp.Result.ID, resp.Result.Payload), resp.Result.Vector, nil
}

// HealthCheck hits the Qdrant root endpoint. Newer Qdrant versions have
// no dedicated /health route.
func (s *QdrantStore) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return fmt.Errorf("qdrant healthcheck: build request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant healthcheck: %w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant healthcheck: status %d: %w", resp.StatusCode, ErrUnavailable)
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func buildFilter(f Filter) *qdrantFilter {
	var must []qdrantMatchCondition
	if f.AppID != "" {
		cond := qdrantMatchCondition{Key: "app_id"}
		cond.Match.Value = f.AppID
		must = append(must, cond)
	}
	if f.Platform != "" {
		cond := qdrantMatchCondition{Key: "platform"}
		cond.Match.Value = f.Platform
		must = append(must, cond)
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrantFilter{Must: must}
}

// reviewFromPayload maps a Qdrant payload onto the review read model.
// Missing or malformed fields degrade to zero values.
func reviewFromPayload(id string, payload map[string]any) review.Review {
	r := review.Review{ID: id}
	r.AppID = payloadString(payload, "app_id")
	r.Platform = payloadString(payload, "platform")
	r.Author = payloadString(payload, "author")
	r.Title = payloadString(payload, "title")
	r.Content = payloadString(payload, "content")
	r.Version = payloadString(payload, "version")
	r.EmbeddingProvider = payloadString(payload, "embedding_provider")
	if v, ok := payload["rating"].(float64); ok {
		r.Rating = int(v)
	}
	if ds := payloadString(payload, "date"); ds != "" {
		if t, err := time.Parse(time.RFC3339, ds); err == nil {
			r.Date = t
		}
	}
	return r
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func (s *QdrantStore) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

func (s *QdrantStore) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("qdrant: marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("qdrant: build request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant %s %s: %w: %v", method, path, ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("qdrant %s %s: read response: %w", method, path, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("qdrant %s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("qdrant %s %s: status %d: %s: %w", method, path, resp.StatusCode, respBody, ErrUnavailable)
	}
	return respBody, nil
}
