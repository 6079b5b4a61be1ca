package domain

import "errors"

var (
	// ErrInvalidID signals a malformed concept identifier.
	ErrInvalidID = errors.New("invalid concept id")
	// ErrConceptNotFound signals a missing concept.
	ErrConceptNotFound = errors.New("concept not found")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
