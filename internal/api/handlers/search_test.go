package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/arielvoskov/reviewlens/internal/domain/retrieval"
	"github.com/arielvoskov/reviewlens/internal/domain/review"
	"github.com/arielvoskov/reviewlens/internal/infra/vectorstore"
)

type searcherStub struct {
	results   []review.Candidate
	err       error
	gotQuery  retrieval.Query
	gotSeedID string
}

func (s *searcherStub) Search(_ context.Context, q retrieval.Query) ([]review.Candidate, error) {
	s.gotQuery = q
	return s.results, s.err
}

func (s *searcherStub) FindSimilarToStored(_ context.Context, id string, q retrieval.Query) ([]review.Candidate, error) {
	s.gotSeedID = id
	s.gotQuery = q
	return s.results, s.err
}

func candidates(n int) []review.Candidate {
	out := make([]review.Candidate, n)
	for i := range out {
		out[i] = review.Candidate{
			Review:     review.Review{ID: fmt.Sprintf("r%d", i+1), Rating: 4, Title: "ok"},
			Similarity: 0.9 - float64(i)*0.1,
		}
	}
	return out
}

func TestSearch_Success(t *testing.T) {
	t.Parallel()

	stub := &searcherStub{results: candidates(2)}
	h := NewSearchHandler(stub)

	body := `{"query":"login crash","appId":"app-1","limit":5,"threshold":0.3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Errorf("count = %d, results = %d, want 2", resp.Count, len(resp.Results))
	}
	if stub.gotQuery.Text != "login crash" || stub.gotQuery.AppID != "app-1" {
		t.Errorf("query not forwarded: %+v", stub.gotQuery)
	}
	if stub.gotQuery.Limit != 5 || stub.gotQuery.Threshold != 0.3 {
		t.Errorf("limit/threshold not forwarded: %+v", stub.gotQuery)
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&searcherStub{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/search", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearch_LimitClamped(t *testing.T) {
	t.Parallel()

	stub := &searcherStub{}
	h := NewSearchHandler(stub)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/search", strings.NewReader(`{"query":"q","limit":500}`))
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if stub.gotQuery.Limit != maxSearchLimit {
		t.Errorf("limit = %d, want clamped to %d", stub.gotQuery.Limit, maxSearchLimit)
	}
}

func TestSearch_EmptyResultsIsJSONArray(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&searcherStub{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/search", strings.NewReader(`{"query":"q"}`))
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Errorf("empty results must serialize as [], got %s", rec.Body.String())
	}
}

func TestSearch_StoreDown_Is503(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&searcherStub{err: vectorstore.ErrUnavailable})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews/search", strings.NewReader(`{"query":"q"}`))
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestSimilar_Success(t *testing.T) {
	t.Parallel()

	stub := &searcherStub{results: candidates(1)}
	h := NewSearchHandler(stub)

	r := chi.NewRouter()
	r.Get("/reviews/{id}/similar", h.Similar)
	req := httptest.NewRequest(http.MethodGet, "/reviews/r42/similar?limit=3&threshold=0.5&appId=app-1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if stub.gotSeedID != "r42" {
		t.Errorf("seed id = %q, want r42", stub.gotSeedID)
	}
	if stub.gotQuery.Limit != 3 || stub.gotQuery.Threshold != 0.5 || stub.gotQuery.AppID != "app-1" {
		t.Errorf("query params not forwarded: %+v", stub.gotQuery)
	}
}

func TestSimilar_UnknownID_Is404(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&searcherStub{err: fmt.Errorf("get: %w", vectorstore.ErrNotFound)})
	r := chi.NewRouter()
	r.Get("/reviews/{id}/similar", h.Similar)
	req := httptest.NewRequest(http.MethodGet, "/reviews/missing/similar", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSimilar_MissingEmbedding_Is422(t *testing.T) {
	t.Parallel()

	h := NewSearchHandler(&searcherStub{err: retrieval.ErrNoEmbedding})
	r := chi.NewRouter()
	r.Get("/reviews/{id}/similar", h.Similar)
	req := httptest.NewRequest(http.MethodGet, "/reviews/r1/similar", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}
