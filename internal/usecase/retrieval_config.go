package usecase

import (
	"fmt"
	"time"

	"travel-rag/internal/usecase/retrieval"
)

// RetrievalConfig holds tunable parameters for the answer pipeline.
type RetrievalConfig struct {
	// DefaultMaxResults applies when a request does not set max_results.
	DefaultMaxResults int
	// HistoryTurns is how many prior chat turns reach the prompt.
	HistoryTurns int
	// RetrievalTimeout bounds the hybrid search stage.
	RetrievalTimeout time.Duration
	// GenerationTimeout bounds the generation stage including retries.
	GenerationTimeout time.Duration
	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Hybrid holds the fusion settings.
	Hybrid retrieval.HybridConfig
	// Retry controls generation retries.
	Retry RetryPolicy
}

// DefaultRetrievalConfig returns the service defaults.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		DefaultMaxResults: 5,
		HistoryTurns:      5,
		RetrievalTimeout:  5 * time.Second,
		GenerationTimeout: 60 * time.Second,
		MaxTokens:         2048,
		Hybrid:            retrieval.DefaultHybridConfig(),
		Retry:             DefaultRetryPolicy(),
	}
}

// Validate checks if the configuration values are within acceptable ranges.
func (c RetrievalConfig) Validate() error {
	if c.DefaultMaxResults < 1 || c.DefaultMaxResults > 20 {
		return fmt.Errorf("defaultMaxResults must be between 1 and 20, got %d", c.DefaultMaxResults)
	}
	if c.HistoryTurns < 0 {
		return fmt.Errorf("historyTurns must be non-negative, got %d", c.HistoryTurns)
	}
	if c.RetrievalTimeout <= 0 {
		return fmt.Errorf("retrieval timeout must be positive, got %v", c.RetrievalTimeout)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation timeout must be positive, got %v", c.GenerationTimeout)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("maxTokens must be positive, got %d", c.MaxTokens)
	}
	if err := c.Hybrid.Validate(); err != nil {
		return fmt.Errorf("hybrid config invalid: %w", err)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("retry config invalid: %w", err)
	}
	return nil
}
