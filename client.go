// Package conceptd is an embedded (in-process) client for the concept
// store: the same repository and service stack the HTTP server uses, wired
// directly for Go consumers.
package conceptd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/conceptd/internal/db"
	dbRedis "github.com/kailas-cloud/conceptd/internal/db/redis"
	"github.com/kailas-cloud/conceptd/internal/domain"
	domconcept "github.com/kailas-cloud/conceptd/internal/domain/concept"
	"github.com/kailas-cloud/conceptd/internal/domain/concept/changeset"
	conceptrepo "github.com/kailas-cloud/conceptd/internal/repository/concept"
	conceptuc "github.com/kailas-cloud/conceptd/internal/usecase/concept"
)

const defaultReadinessTimeout = 10 * time.Second

// Embedder vectorizes text. Implementations should return unit-norm
// vectors; the client normalizes defensively either way.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Concept is the public record shape.
type Concept struct {
	ID                  string
	Name                string
	Usage               string
	NormalizedEmbedding []float32
}

// ConceptPatch is a partial update. Nil fields are unchanged.
type ConceptPatch struct {
	Name  *string
	Usage *string
}

// conceptUseCase is the internal service contract, substitutable in tests.
type conceptUseCase interface {
	Create(ctx context.Context, c domconcept.Concept) (domconcept.Concept, error)
	Get(ctx context.Context, rawID string) (domconcept.Concept, error)
	List(ctx context.Context) ([]domconcept.Concept, error)
	Update(ctx context.Context, rawID string, cs changeset.Changeset) (domconcept.Concept, error)
	Delete(ctx context.Context, rawID string) error
}

// Client is the conceptd embedded client entry point.
type Client struct {
	store db.Store
	svc   conceptUseCase
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("conceptd: database address required (use WithValkey or WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("conceptd: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("conceptd: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	var domEmb domain.Embedder = &noopEmbedder{}
	if cfg.embedder != nil {
		domEmb = domain.NewNormalizedEmbedder(&embedderAdapter{inner: cfg.embedder})
	}

	if cfg.logger != nil {
		cfg.logger.Debug("conceptd client wired", zap.Strings("addrs", cfg.addrs))
	}

	repo := conceptrepo.New(store)
	return &Client{
		store: store,
		svc:   conceptuc.New(repo, domEmb),
	}
}

// Close releases the database connection.
func (c *Client) Close() {
	c.store.Close()
}

// CreateConcept inserts a concept and returns the persisted record with its
// store-assigned id. Any id on the input is ignored.
func (c *Client) CreateConcept(ctx context.Context, in Concept) (Concept, error) {
	dc, err := domconcept.New(in.Name, in.Usage, in.NormalizedEmbedding)
	if err != nil {
		return Concept{}, fmt.Errorf("create concept: %w", err)
	}
	created, err := c.svc.Create(ctx, dc)
	if err != nil {
		return Concept{}, fmt.Errorf("create concept: %w", err)
	}
	return fromInternal(created), nil
}

// GetConcept retrieves a concept by id.
func (c *Client) GetConcept(ctx context.Context, id string) (Concept, error) {
	dc, err := c.svc.Get(ctx, id)
	if err != nil {
		return Concept{}, fmt.Errorf("get concept: %w", err)
	}
	return fromInternal(dc), nil
}

// ListConcepts returns all concepts, capped at 1000 records.
func (c *Client) ListConcepts(ctx context.Context) ([]Concept, error) {
	dcs, err := c.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}
	out := make([]Concept, len(dcs))
	for i, dc := range dcs {
		out[i] = fromInternal(dc)
	}
	return out, nil
}

// UpdateConcept applies a partial update, recomputing the embedding when
// name or usage changed. An empty patch returns the record unchanged.
func (c *Client) UpdateConcept(ctx context.Context, id string, p ConceptPatch) (Concept, error) {
	cs, err := changeset.New(p.Name, p.Usage)
	if err != nil {
		return Concept{}, fmt.Errorf("update concept: %w", err)
	}
	dc, err := c.svc.Update(ctx, id, cs)
	if err != nil {
		return Concept{}, fmt.Errorf("update concept: %w", err)
	}
	return fromInternal(dc), nil
}

// DeleteConcept removes a concept by id.
func (c *Client) DeleteConcept(ctx context.Context, id string) error {
	if err := c.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete concept: %w", err)
	}
	return nil
}

func fromInternal(dc domconcept.Concept) Concept {
	return Concept{
		ID:                  dc.ID().String(),
		Name:                dc.Name(),
		Usage:               dc.Usage(),
		NormalizedEmbedding: dc.NormalizedEmbedding(),
	}
}

// embedderAdapter lifts the public Embedder into the domain contract.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vec, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%v: %w", err, domain.ErrEmbeddingProviderError)
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// noopEmbedder fails text updates when no embedder is configured.
type noopEmbedder struct{}

func (n *noopEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"no embedder configured (use WithEmbedder): %w", domain.ErrEmbeddingProviderError)
}
