package conceptd

import "github.com/kailas-cloud/conceptd/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidID              = domain.ErrInvalidID
	ErrConceptNotFound        = domain.ErrConceptNotFound
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
