// Package remotecfg fetches tunable pipeline settings from an external
// settings service and caches them with a TTL. When the service is
// unreachable the cache degrades: stale values are served past the TTL,
// and hard-coded defaults are used before the first successful fetch.
package remotecfg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Settings are the remotely tunable knobs of the answer pipeline.
type Settings struct {
	ChatModel           string  `json:"chatModel"`
	EmbeddingProvider   string  `json:"embeddingProvider"`
	MaxReviews          int     `json:"maxReviews"`
	SimilarityThreshold float64 `json:"similarityThreshold"`
	Temperature         float32 `json:"temperature"`
	SystemInstructions  string  `json:"systemInstructions"`
}

// Defaults returns the built-in settings used when the settings service
// has never answered.
func Defaults() Settings {
	return Settings{
		ChatModel:           "llama3.2:3b",
		EmbeddingProvider:   "ollama",
		MaxReviews:          5,
		SimilarityThreshold: 0.3,
		Temperature:         0.2,
		SystemInstructions:  "You are a product analyst assistant. Answer questions about an app using only the user reviews provided as context.",
	}
}

// DefaultTTL is how long a fetched snapshot stays fresh.
const DefaultTTL = 10 * time.Minute

// Cache is a TTL read-through cache over the settings service.
type Cache struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client
	logger     *logrus.Logger

	mu         sync.RWMutex
	current    Settings
	fetchedAt  time.Time
	haveRemote bool
}

// NewCache creates a Cache. An empty url disables fetching entirely and
// the cache serves Defaults forever. ttl <= 0 uses DefaultTTL.
func NewCache(url string, ttl time.Duration, logger *logrus.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Cache{
		url:     url,
		ttl:     ttl,
		logger:  logger,
		current: Defaults(),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Get returns the current settings, refreshing from the service when the
// cached snapshot is older than the TTL. A failed refresh never fails
// the caller; the previous snapshot (or the defaults) is returned.
func (c *Cache) Get(ctx context.Context) Settings {
	c.mu.RLock()
	fresh := c.haveRemote && time.Since(c.fetchedAt) < c.ttl
	snapshot := c.current
	c.mu.RUnlock()

	if fresh || c.url == "" {
		return snapshot
	}

	if err := c.Refresh(ctx); err != nil {
		c.logger.WithError(err).Warn("Settings refresh failed, serving cached values")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Refresh fetches settings from the service unconditionally.
func (c *Cache) Refresh(ctx context.Context) error {
	if c.url == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("settings refresh: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("settings refresh: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("settings refresh: status %d", resp.StatusCode)
	}

	fetched := Defaults()
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		return fmt.Errorf("settings refresh: decode: %w", err)
	}
	sanitize(&fetched)

	c.mu.Lock()
	c.current = fetched
	c.fetchedAt = time.Now()
	c.haveRemote = true
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"chat_model":     fetched.ChatModel,
		"embed_provider": fetched.EmbeddingProvider,
		"max_reviews":    fetched.MaxReviews,
	}).Debug("Settings refreshed")
	return nil
}

// sanitize clamps out-of-range remote values back to defaults so a bad
// deploy of the settings service cannot break retrieval.
func sanitize(s *Settings) {
	def := Defaults()
	if s.ChatModel == "" {
		s.ChatModel = def.ChatModel
	}
	if s.EmbeddingProvider == "" {
		s.EmbeddingProvider = def.EmbeddingProvider
	}
	if s.MaxReviews <= 0 {
		s.MaxReviews = def.MaxReviews
	}
	if s.SimilarityThreshold < 0 || s.SimilarityThreshold > 1 {
		s.SimilarityThreshold = def.SimilarityThreshold
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		s.Temperature = def.Temperature
	}
	if s.SystemInstructions == "" {
		s.SystemInstructions = def.SystemInstructions
	}
}
