package helper

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// RagConfiguration holds the tunables of ingestion and query processing
type RagConfiguration struct {
	// Embedding
	EmbeddingDim int `json:"embedding_dim"`

	// Ingestion
	BatchSize         int           `json:"batch_size"`
	BatchDelay        time.Duration `json:"batch_delay"`         // Cooldown between batches
	RequestsPerSecond float64       `json:"requests_per_second"` // 0 disables per-request pacing
	IngestConcurrency int           `json:"ingest_concurrency"`
	MinSectionLength  int           `json:"min_section_length"` // Cleaned sections must be longer

	// Retrieval
	SearchLimit   int     `json:"search_limit"`
	MinSimilarity float64 `json:"min_similarity"`
	VectorWeight  float64 `json:"vector_weight"`
	LexicalWeight float64 `json:"lexical_weight"`

	// Context assembly
	ContextBudget int `json:"context_budget"` // In estimated tokens
	CharsPerToken int `json:"chars_per_token"`
}

// DefaultRagConfiguration returns the default tunables
func DefaultRagConfiguration() RagConfiguration {
	return RagConfiguration{
		EmbeddingDim:      1536,
		BatchSize:         100,
		BatchDelay:        time.Second,
		RequestsPerSecond: 0,
		IngestConcurrency: runtime.GOMAXPROCS(0),
		MinSectionLength:  100,
		SearchLimit:       10,
		MinSimilarity:     0.7,
		VectorWeight:      0.7,
		LexicalWeight:     0.3,
		ContextBudget:     8000,
		CharsPerToken:     4,
	}
}

// NewRagConfiguration returns the defaults overridden by TECHRAG_* environment variables.
func NewRagConfiguration() (*RagConfiguration, error) {
	_ = godotenv.Load()

	config := DefaultRagConfiguration()

	var err error
	if config.EmbeddingDim, err = envInt("TECHRAG_EMBEDDING_DIM", config.EmbeddingDim); err != nil {
		return nil, err
	}
	if config.BatchSize, err = envInt("TECHRAG_BATCH_SIZE", config.BatchSize); err != nil {
		return nil, err
	}
	if config.BatchDelay, err = envDuration("TECHRAG_BATCH_DELAY", config.BatchDelay); err != nil {
		return nil, err
	}
	if config.RequestsPerSecond, err = envFloat("TECHRAG_REQUESTS_PER_SECOND", config.RequestsPerSecond); err != nil {
		return nil, err
	}
	if config.IngestConcurrency, err = envInt("TECHRAG_INGEST_CONCURRENCY", config.IngestConcurrency); err != nil {
		return nil, err
	}
	if config.MinSectionLength, err = envInt("TECHRAG_MIN_SECTION_LENGTH", config.MinSectionLength); err != nil {
		return nil, err
	}
	if config.SearchLimit, err = envInt("TECHRAG_SEARCH_LIMIT", config.SearchLimit); err != nil {
		return nil, err
	}
	if config.MinSimilarity, err = envFloat("TECHRAG_MIN_SIMILARITY", config.MinSimilarity); err != nil {
		return nil, err
	}
	if config.VectorWeight, err = envFloat("TECHRAG_VECTOR_WEIGHT", config.VectorWeight); err != nil {
		return nil, err
	}
	if config.LexicalWeight, err = envFloat("TECHRAG_LEXICAL_WEIGHT", config.LexicalWeight); err != nil {
		return nil, err
	}
	if config.ContextBudget, err = envInt("TECHRAG_CONTEXT_BUDGET", config.ContextBudget); err != nil {
		return nil, err
	}
	if config.CharsPerToken, err = envInt("TECHRAG_CHARS_PER_TOKEN", config.CharsPerToken); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that all sizes are positive and weights are within [0, 1].
func (c RagConfiguration) Validate() error {
	positive := map[string]int{
		"embedding_dim":      c.EmbeddingDim,
		"batch_size":         c.BatchSize,
		"ingest_concurrency": c.IngestConcurrency,
		"search_limit":       c.SearchLimit,
		"context_budget":     c.ContextBudget,
		"chars_per_token":    c.CharsPerToken,
	}
	for name, v := range positive {
		if v <= 0 {
			return NewError("validate configuration", fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	if c.MinSectionLength < 0 {
		return NewError("validate configuration", fmt.Errorf("min_section_length must not be negative"))
	}
	if c.BatchDelay < 0 || c.RequestsPerSecond < 0 {
		return NewError("validate configuration", fmt.Errorf("batch_delay and requests_per_second must not be negative"))
	}
	for name, w := range map[string]float64{
		"min_similarity": c.MinSimilarity,
		"vector_weight":  c.VectorWeight,
		"lexical_weight": c.LexicalWeight,
	} {
		if w < 0 || w > 1 {
			return NewError("validate configuration", fmt.Errorf("%s must be within [0, 1], got %v", name, w))
		}
	}
	return nil
}

// ProviderConfiguration selects and configures the external model providers
type ProviderConfiguration struct {
	EmbeddingProvider  string // openai, gemini or local
	EmbeddingModel     string
	GenerationProvider string // anthropic, gemini or openai
	GenerationModel    string
	OpenAIAPIKey       string
	AnthropicAPIKey    string
	GeminiAPIKey       string
}

// NewProviderConfiguration reads the provider selection from the environment.
func NewProviderConfiguration() *ProviderConfiguration {
	_ = godotenv.Load()

	return &ProviderConfiguration{
		EmbeddingProvider:  envString("TECHRAG_EMBEDDING_PROVIDER", "openai"),
		EmbeddingModel:     os.Getenv("TECHRAG_EMBEDDING_MODEL"),
		GenerationProvider: envString("TECHRAG_GENERATION_PROVIDER", "anthropic"),
		GenerationModel:    os.Getenv("TECHRAG_GENERATION_MODEL"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
	}
}

func envString(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, NewError(fmt.Sprintf("parse %s", key), err)
	}
	return i, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, NewError(fmt.Sprintf("parse %s", key), err)
	}
	return f, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, NewError(fmt.Sprintf("parse %s", key), err)
	}
	return d, nil
}
