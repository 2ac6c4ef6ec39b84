package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Qdrant    QdrantConfig    `toml:"qdrant"`
	Cache     CacheConfig     `toml:"cache"`
	Chat      ChatConfig      `toml:"chat"`
	Gateway   GatewayConfig   `toml:"gateway"`
	Trace     TraceConfig     `toml:"trace"`
}

type LLMConfig struct {
	BaseURL string `toml:"base_url"`
	// APIKey is an optional server-wide default; requests may carry their own key.
	APIKey string `toml:"api_key"`
}

type EmbeddingConfig struct {
	Dimension int `toml:"dimension"`
	// GeminiAPIKey enables the remote Google embedding providers.
	// Falls back to the GEMINI_API_KEY environment variable.
	GeminiAPIKey    string `toml:"gemini_api_key"`
	PrimaryModel    string `toml:"primary_model"`
	LegacyModel     string `toml:"legacy_model"`
	OpenRouterModel string `toml:"openrouter_model"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

type QdrantConfig struct {
	URL        string `toml:"url"`
	Collection string `toml:"collection"`
}

type CacheConfig struct {
	// Backend selects the key-value cache: "memory" or "sqlite".
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type ChatConfig struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	// BudgetFraction is the share of the model context window, in
	// characters, spent on assembled history.
	BudgetFraction float64 `toml:"budget_fraction"`
	SearchLimit    int     `toml:"search_limit"`
	SystemPrompt   string  `toml:"system_prompt"`
}

type GatewayConfig struct {
	Addr string `toml:"addr"`
}

type TraceConfig struct {
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

const defaultSystemPrompt = "You are a helpful AI assistant. Answer the user's questions directly and accurately. " +
	"Use any relevant conversation history provided to give contextual responses. Be concise but informative."

func Load() (*Config, error) {
	cfg := &Config{
		LLM: LLMConfig{
			BaseURL: "https://openrouter.ai/api/v1",
		},
		Embedding: EmbeddingConfig{
			Dimension:       768,
			PrimaryModel:    "gemini-embedding-001",
			LegacyModel:     "embedding-001",
			OpenRouterModel: "openai/text-embedding-3-small",
			TimeoutSeconds:  15,
		},
		Qdrant: QdrantConfig{
			URL:        "http://localhost:6333",
			Collection: "conversations",
		},
		Cache: CacheConfig{
			Backend: "memory",
			Path:    defaultCachePath(),
		},
		Chat: ChatConfig{
			SimilarityThreshold: 0.7,
			BudgetFraction:      0.7,
			SearchLimit:         3,
			SystemPrompt:        defaultSystemPrompt,
		},
		Gateway: GatewayConfig{
			Addr: ":8484",
		},
	}

	path := configPath()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Embedding.GeminiAPIKey == "" {
		cfg.Embedding.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	return cfg, nil
}

func configPath() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "recall", "config.toml")
}

func defaultCachePath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "recall", "cache.db")
}
