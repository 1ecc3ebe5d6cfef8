// Package config centralizes environment-driven configuration for the
// ingestion pipeline and the chat server. All values have documented
// defaults; entry points load a .env file before reading them.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every injected setting the pipeline and server consume.
type Config struct {
	// External services
	EmbeddingServiceURL string // POST /embed endpoint
	QdrantHost          string
	QdrantPort          int
	Collection          string
	LLMBaseURL          string // OpenAI-compatible API base, empty = api.openai.com
	LLMAPIKey           string
	LLMModel            string

	// Query-time tuning
	TopK           int
	Temperature    float64
	TopP           float64
	MaxTokens      int
	MaxQueryLength int

	// Offline pipeline tuning
	DataDir          string
	SeedURL          string
	AllowedDomain    string
	MaxPages         int
	CrawlConcurrency int
	RequestsPerMin   int
	EmbedBatchSize   int
	IndexBatchSize   int

	// Serving
	Port string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		EmbeddingServiceURL: getEnv("EMBEDDING_SERVICE_URL", "http://localhost:8000/embed"),
		QdrantHost:          getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:          getEnvInt("QDRANT_PORT", 6334),
		Collection:          getEnv("QDRANT_COLLECTION", "harlingen_city_content"),
		LLMBaseURL:          getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:           getEnv("LLM_API_KEY", ""),
		LLMModel:            getEnv("LLM_MODEL", "gpt-4o-mini"),

		TopK:           getEnvInt("SIMILARITY_SEARCH_TOP_K", 5),
		Temperature:    getEnvFloat("LLM_TEMPERATURE", 0.7),
		TopP:           getEnvFloat("LLM_TOP_P", 0.9),
		MaxTokens:      getEnvInt("LLM_MAX_TOKENS", 512),
		MaxQueryLength: getEnvInt("MAX_QUERY_LENGTH", 500),

		DataDir:          getEnv("DATA_DIR", "data"),
		SeedURL:          getEnv("CRAWL_SEED_URL", "https://www.harlingentx.gov/"),
		AllowedDomain:    getEnv("CRAWL_ALLOWED_DOMAIN", "harlingentx.gov"),
		MaxPages:         getEnvInt("CRAWL_MAX_PAGES", 500),
		CrawlConcurrency: getEnvInt("CRAWL_CONCURRENCY", 3),
		RequestsPerMin:   getEnvInt("CRAWL_REQUESTS_PER_MINUTE", 30),
		EmbedBatchSize:   getEnvInt("EMBED_BATCH_SIZE", 32),
		IndexBatchSize:   getEnvInt("INDEX_BATCH_SIZE", 100),

		Port: getEnv("PORT", "8080"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// Validate checks settings that have no usable zero value.
func (c *Config) Validate() error {
	if c.EmbeddingServiceURL == "" {
		return fmt.Errorf("EMBEDDING_SERVICE_URL must be set")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("SIMILARITY_SEARCH_TOP_K must be positive, got %d", c.TopK)
	}
	if c.MaxQueryLength <= 0 {
		return fmt.Errorf("MAX_QUERY_LENGTH must be positive, got %d", c.MaxQueryLength)
	}
	return nil
}
