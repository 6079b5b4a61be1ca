package domain

import (
	"context"
	"fmt"
	"math"
)

// KeyPrefix namespaces all keys this service writes to the database.
const KeyPrefix = "conceptd:"

// Embedder is the shared text vectorization contract between layers.
// Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Normalize returns a unit-norm copy of v so downstream consumers can use
// plain dot products. A nil, empty, or zero vector is returned as-is.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// NormalizedEmbedder is a decorator that scales the inner embedder's output
// to unit L2 norm. Providers that already normalize pass through unchanged
// up to float rounding.
type NormalizedEmbedder struct {
	inner Embedder
}

// NewNormalizedEmbedder creates a normalizing decorator.
func NewNormalizedEmbedder(inner Embedder) *NormalizedEmbedder {
	return &NormalizedEmbedder{inner: inner}
}

// Embed delegates to the inner embedder and normalizes the result.
func (e *NormalizedEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("normalized embed: %w", err)
	}
	result.Embedding = Normalize(result.Embedding)
	return result, nil
}
