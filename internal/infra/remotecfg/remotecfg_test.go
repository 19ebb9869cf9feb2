package remotecfg

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCache_NoURL_ServesDefaults(t *testing.T) {
	t.Parallel()

	c := NewCache("", 0, quietLogger())
	got := c.Get(context.Background())
	if got != Defaults() {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestCache_FetchesAndCaches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Settings{ //nolint:errcheck
			ChatModel:           "gpt-4o-mini",
			EmbeddingProvider:   "openai",
			MaxReviews:          8,
			SimilarityThreshold: 0.4,
			SystemInstructions:  "custom instructions",
		})
	}))
	defer srv.Close()

	c := NewCache(srv.URL, time.Minute, quietLogger())
	got := c.Get(context.Background())
	if got.ChatModel != "gpt-4o-mini" || got.MaxReviews != 8 {
		t.Errorf("unexpected settings: %+v", got)
	}

	// Within the TTL, repeated reads do not re-fetch.
	c.Get(context.Background())
	c.Get(context.Background())
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestCache_ServesStaleOnFailure(t *testing.T) {
	t.Parallel()

	healthy := atomic.Bool{}
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Settings{ChatModel: "gpt-4o-mini", MaxReviews: 7, SimilarityThreshold: 0.5}) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewCache(srv.URL, time.Nanosecond, quietLogger())
	first := c.Get(context.Background())
	if first.ChatModel != "gpt-4o-mini" {
		t.Fatalf("initial fetch failed: %+v", first)
	}

	healthy.Store(false)
	time.Sleep(time.Millisecond)
	// TTL expired, refresh fails; the last good snapshot is served.
	second := c.Get(context.Background())
	if second.ChatModel != "gpt-4o-mini" || second.MaxReviews != 7 {
		t.Errorf("expected stale snapshot, got %+v", second)
	}
}

func TestCache_SanitizesRemoteValues(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Settings{ //nolint:errcheck
			ChatModel:           "",
			MaxReviews:          -3,
			SimilarityThreshold: 2.5,
			Temperature:         -1,
		})
	}))
	defer srv.Close()

	c := NewCache(srv.URL, time.Minute, quietLogger())
	got := c.Get(context.Background())
	def := Defaults()
	if got.ChatModel != def.ChatModel {
		t.Errorf("empty chat model not defaulted: %q", got.ChatModel)
	}
	if got.MaxReviews != def.MaxReviews {
		t.Errorf("negative max reviews not defaulted: %d", got.MaxReviews)
	}
	if got.SimilarityThreshold != def.SimilarityThreshold {
		t.Errorf("out-of-range threshold not defaulted: %v", got.SimilarityThreshold)
	}
	if got.Temperature != def.Temperature {
		t.Errorf("negative temperature not defaulted: %v", got.Temperature)
	}
}
