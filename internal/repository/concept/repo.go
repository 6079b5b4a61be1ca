// Package concept persists concept records as JSON documents. The record id
// lives in the key, never in the document body.
package concept

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/conceptd/internal/db"
	"github.com/kailas-cloud/conceptd/internal/domain"
	domconcept "github.com/kailas-cloud/conceptd/internal/domain/concept"
	"github.com/kailas-cloud/conceptd/internal/domain/concept/changeset"
)

// MaxListResults caps List output. Excess records are silently omitted;
// this is a known ceiling, not a page.
const MaxListResults = 1000

var keyPrefix = domain.KeyPrefix + "concepts:"

// store is the consumer interface for concepts (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/concept.Repository.
type Repo struct {
	store store
}

// New creates a concept repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Insert persists a new concept under a freshly assigned id and returns the
// persisted record. Any id already set on c is discarded.
func (r *Repo) Insert(ctx context.Context, c domconcept.Concept) (domconcept.Concept, error) {
	persisted := c.WithID(domconcept.NewID())

	data, err := json.Marshal(buildDoc(&persisted))
	if err != nil {
		return domconcept.Concept{}, fmt.Errorf("marshal concept: %w", err)
	}

	key := conceptKey(persisted.ID())
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return domconcept.Concept{}, fmt.Errorf("json.set %s: %w", key, err)
	}

	return persisted, nil
}

// Get returns a concept by id.
func (r *Repo) Get(ctx context.Context, id domconcept.ID) (domconcept.Concept, error) {
	key := conceptKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domconcept.Concept{}, fmt.Errorf("%w: id=%s", domain.ErrConceptNotFound, id)
		}
		return domconcept.Concept{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(id, raw)
}

// List returns up to MaxListResults concepts ordered by id.
func (r *Repo) List(ctx context.Context) ([]domconcept.Concept, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan concepts: %w", err)
	}

	// SCAN order is unspecified; sort for a deterministic listing before
	// applying the cap.
	sort.Strings(keys)
	if len(keys) > MaxListResults {
		keys = keys[:MaxListResults]
	}

	concepts := make([]domconcept.Concept, 0, len(keys))
	for _, key := range keys {
		id, err := domconcept.ParseID(strings.TrimPrefix(key, keyPrefix))
		if err != nil {
			continue // foreign key under our prefix
		}
		c, err := r.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrConceptNotFound) {
				continue // deleted between SCAN and JSON.GET
			}
			return nil, err
		}
		concepts = append(concepts, c)
	}

	return concepts, nil
}

// Apply performs a partial field merge: JSON.GET, merge only the changeset
// fields, JSON.SET. Fields outside the changeset stay untouched. Last write
// wins; there is no revision token.
func (r *Repo) Apply(ctx context.Context, id domconcept.ID, cs changeset.Changeset) error {
	key := conceptKey(id)

	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("%w: id=%s", domain.ErrConceptNotFound, id)
		}
		return fmt.Errorf("json.get %s: %w", key, err)
	}

	var docs []conceptDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return fmt.Errorf("unmarshal for merge: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("%w: id=%s", domain.ErrConceptNotFound, id)
	}

	current := docs[0]
	mergeChangeset(&current, cs)

	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("marshal merged concept: %w", err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Delete removes exactly one concept. A missing record is reported as
// domain.ErrConceptNotFound.
func (r *Repo) Delete(ctx context.Context, id domconcept.ID) error {
	key := conceptKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("%w: id=%s", domain.ErrConceptNotFound, id)
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func conceptKey(id domconcept.ID) string {
	return keyPrefix + id.String()
}

// mergeChangeset merges changeset fields into the current document in-place.
func mergeChangeset(current *conceptDoc, cs changeset.Changeset) {
	if cs.Name() != nil {
		current.Name = *cs.Name()
	}
	if cs.Usage() != nil {
		current.Usage = *cs.Usage()
	}
	if cs.Embedding() != nil {
		current.NormalizedEmbedding = cs.Embedding()
	}
}
