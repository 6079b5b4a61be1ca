package concept

import (
	"context"

	"github.com/kailas-cloud/conceptd/internal/domain"
	domconcept "github.com/kailas-cloud/conceptd/internal/domain/concept"
	"github.com/kailas-cloud/conceptd/internal/domain/concept/changeset"
)

// Repository defines the storage contract for concepts.
type Repository interface {
	Insert(ctx context.Context, c domconcept.Concept) (domconcept.Concept, error)
	Get(ctx context.Context, id domconcept.ID) (domconcept.Concept, error)
	List(ctx context.Context) ([]domconcept.Concept, error)
	Apply(ctx context.Context, id domconcept.ID, cs changeset.Changeset) error
	Delete(ctx context.Context, id domconcept.ID) error
}

// Embedder vectorizes text into normalized embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
