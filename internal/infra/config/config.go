// Package config provides application-wide configuration.
// Values resolve in order: built-in defaults, then an optional YAML file,
// then environment variables. All fields have safe defaults so the binary
// runs locally without any setup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for ReviewLens.
type Config struct {
	// HTTP
	Host string `yaml:"host"` // RL_HOST — default: "0.0.0.0"
	Port int    `yaml:"port"` // RL_PORT — default: 8080

	// Logging
	LogLevel string `yaml:"log_level"` // RL_LOG_LEVEL — default: "info"

	// Vector store (Qdrant)
	QdrantURL        string `yaml:"qdrant_url"`        // QDRANT_URL — default: "http://localhost:6333"
	QdrantAPIKey     string `yaml:"qdrant_api_key"`    // QDRANT_API_KEY — default: ""
	QdrantCollection string `yaml:"qdrant_collection"` // QDRANT_COLLECTION — default: "reviews"

	// Ollama (local embedding + chat)
	OllamaBaseURL    string `yaml:"ollama_base_url"`    // OLLAMA_BASE_URL — default: "http://localhost:11434"
	OllamaEmbedModel string `yaml:"ollama_embed_model"` // OLLAMA_EMBED_MODEL — default: "nomic-embed-text" (768 dims)
	OllamaChatModel  string `yaml:"ollama_chat_model"`  // OLLAMA_CHAT_MODEL — default: "llama3.2:3b"

	// OpenAI (hosted embedding + chat)
	OpenAIBaseURL    string `yaml:"openai_base_url"`    // OPENAI_BASE_URL — default: "https://api.openai.com/v1"
	OpenAIAPIKey     string `yaml:"openai_api_key"`     // OPENAI_API_KEY — default: ""
	OpenAIEmbedModel string `yaml:"openai_embed_model"` // OPENAI_EMBED_MODEL — default: "text-embedding-3-small" (1536 dims)
	OpenAIChatModel  string `yaml:"openai_chat_model"`  // OPENAI_CHAT_MODEL — default: "gpt-4o-mini"

	// Dynamic settings service
	SettingsURL string        `yaml:"settings_url"` // RL_SETTINGS_URL — default: "" (disabled, hard-coded defaults apply)
	SettingsTTL time.Duration `yaml:"settings_ttl"` // RL_SETTINGS_TTL — default: 10m
}

const (
	envKeyHost             = "RL_HOST"
	envKeyPort             = "RL_PORT"
	envKeyLogLevel         = "RL_LOG_LEVEL"
	envKeyQdrantURL        = "QDRANT_URL"
	envKeyQdrantAPIKey     = "QDRANT_API_KEY"
	envKeyQdrantCollection = "QDRANT_COLLECTION"
	envKeyOllamaBaseURL    = "OLLAMA_BASE_URL"
	envKeyOllamaEmbedModel = "OLLAMA_EMBED_MODEL"
	envKeyOllamaChatModel  = "OLLAMA_CHAT_MODEL"
	envKeyOpenAIBaseURL    = "OPENAI_BASE_URL"
	envKeyOpenAIAPIKey     = "OPENAI_API_KEY"
	envKeyOpenAIEmbedModel = "OPENAI_EMBED_MODEL"
	envKeyOpenAIChatModel  = "OPENAI_CHAT_MODEL"
	envKeySettingsURL      = "RL_SETTINGS_URL"
	envKeySettingsTTL      = "RL_SETTINGS_TTL"
)

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Host:             "0.0.0.0",
		Port:             8080,
		LogLevel:         "info",
		QdrantURL:        "http://localhost:6333",
		QdrantCollection: "reviews",
		OllamaBaseURL:    "http://localhost:11434",
		OllamaEmbedModel: "nomic-embed-text",
		OllamaChatModel:  "llama3.2:3b",
		OpenAIBaseURL:    "https://api.openai.com/v1",
		OpenAIEmbedModel: "text-embedding-3-small",
		OpenAIChatModel:  "gpt-4o-mini",
		SettingsTTL:      10 * time.Minute,
	}
}

// Load reads configuration from defaults and environment variables.
func Load() Config {
	cfg := Default()
	applyEnv(&cfg)
	return cfg
}

// LoadFile reads configuration from defaults, the given YAML file, and
// environment variables, in that order of precedence (env wins).
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Host = envOr(envKeyHost, cfg.Host)
	cfg.Port = envIntOr(envKeyPort, cfg.Port)
	cfg.LogLevel = envOr(envKeyLogLevel, cfg.LogLevel)
	cfg.QdrantURL = envOr(envKeyQdrantURL, cfg.QdrantURL)
	cfg.QdrantAPIKey = envOr(envKeyQdrantAPIKey, cfg.QdrantAPIKey)
	cfg.QdrantCollection = envOr(envKeyQdrantCollection, cfg.QdrantCollection)
	cfg.OllamaBaseURL = envOr(envKeyOllamaBaseURL, cfg.OllamaBaseURL)
	cfg.OllamaEmbedModel = envOr(envKeyOllamaEmbedModel, cfg.OllamaEmbedModel)
	cfg.OllamaChatModel = envOr(envKeyOllamaChatModel, cfg.OllamaChatModel)
	cfg.OpenAIBaseURL = envOr(envKeyOpenAIBaseURL, cfg.OpenAIBaseURL)
	cfg.OpenAIAPIKey = envOr(envKeyOpenAIAPIKey, cfg.OpenAIAPIKey)
	cfg.OpenAIEmbedModel = envOr(envKeyOpenAIEmbedModel, cfg.OpenAIEmbedModel)
	cfg.OpenAIChatModel = envOr(envKeyOpenAIChatModel, cfg.OpenAIChatModel)
	cfg.SettingsURL = envOr(envKeySettingsURL, cfg.SettingsURL)
	cfg.SettingsTTL = envDurationOr(envKeySettingsTTL, cfg.SettingsTTL)
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
