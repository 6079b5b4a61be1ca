// Package concept implements concept CRUD with automatic embedding
// recomputation: no path updates name or usage without refreshing the
// derived vector, and no client path sets the vector on update.
package concept

import (
	"context"
	"fmt"

	domconcept "github.com/kailas-cloud/conceptd/internal/domain/concept"
	"github.com/kailas-cloud/conceptd/internal/domain/concept/changeset"
)

// Service handles concept CRUD against a repository and an embedder.
type Service struct {
	repo     Repository
	embedder Embedder
}

// New creates a concept service.
func New(repo Repository, embedder Embedder) *Service {
	return &Service{repo: repo, embedder: embedder}
}

// Create inserts a new concept and returns the persisted record with its
// store-assigned id. No embedding is computed here: the vector is either
// precomputed upstream and supplied by the caller, or absent until the next
// update of name/usage triggers recomputation.
func (s *Service) Create(ctx context.Context, c domconcept.Concept) (domconcept.Concept, error) {
	persisted, err := s.repo.Insert(ctx, c)
	if err != nil {
		return domconcept.Concept{}, fmt.Errorf("insert concept: %w", err)
	}
	return persisted, nil
}

// Get retrieves a concept by its rendered id. A malformed id yields
// domain.ErrInvalidID, a well-formed id with no record
// domain.ErrConceptNotFound.
func (s *Service) Get(ctx context.Context, rawID string) (domconcept.Concept, error) {
	id, err := domconcept.ParseID(rawID)
	if err != nil {
		return domconcept.Concept{}, err
	}

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return domconcept.Concept{}, fmt.Errorf("get concept: %w", err)
	}
	return c, nil
}

// List returns all concepts, capped at the repository listing ceiling.
func (s *Service) List(ctx context.Context) ([]domconcept.Concept, error) {
	concepts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}
	return concepts, nil
}

// Update applies a partial update. Fields absent from the changeset stay
// untouched. When the changeset includes name or usage, the embedding is
// recomputed from the effective (changeset value if present, else stored)
// name/usage pair before the write is issued. An empty changeset performs
// no write and returns the existing record unchanged.
func (s *Service) Update(
	ctx context.Context, rawID string, cs changeset.Changeset,
) (domconcept.Concept, error) {
	id, err := domconcept.ParseID(rawID)
	if err != nil {
		return domconcept.Concept{}, err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return domconcept.Concept{}, fmt.Errorf("get concept: %w", err)
	}

	if cs.Empty() {
		return existing, nil
	}

	if cs.TouchesText() {
		vec, err := s.recomputeEmbedding(ctx, &existing, cs)
		if err != nil {
			return domconcept.Concept{}, err
		}
		cs = cs.WithEmbedding(vec)
	}

	if err := s.repo.Apply(ctx, id, cs); err != nil {
		return domconcept.Concept{}, fmt.Errorf("apply changeset: %w", err)
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return domconcept.Concept{}, fmt.Errorf("get updated concept: %w", err)
	}
	return updated, nil
}

// Delete removes a concept by its rendered id. The id-validation policy is
// uniform with Get and Update: malformed ids yield domain.ErrInvalidID
// rather than being treated as matching zero records.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := domconcept.ParseID(rawID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete concept: %w", err)
	}
	return nil
}

// recomputeEmbedding derives the embed text from the effective name/usage
// pair and calls the provider synchronously, so the vector is current
// before the dependent write.
func (s *Service) recomputeEmbedding(
	ctx context.Context, existing *domconcept.Concept, cs changeset.Changeset,
) ([]float32, error) {
	name := existing.Name()
	if cs.Name() != nil {
		name = *cs.Name()
	}
	usage := existing.Usage()
	if cs.Usage() != nil {
		usage = *cs.Usage()
	}

	result, err := s.embedder.Embed(ctx, EmbedText(name, usage))
	if err != nil {
		return nil, fmt.Errorf("recompute embedding: %w", err)
	}
	return result.Embedding, nil
}

// EmbedText renders the canonical text the embedding derives from.
func EmbedText(name, usage string) string {
	return fmt.Sprintf("%s: %s", name, usage)
}
