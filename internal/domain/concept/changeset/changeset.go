// Package changeset models the subset of concept fields a partial update
// actually supplies. Nil fields are left untouched by the storage merge.
package changeset

import (
	"fmt"

	"github.com/kailas-cloud/conceptd/internal/domain/concept"
)

// Changeset is a partial concept update. The embedding is never supplied by
// clients; the service attaches it via WithEmbedding when name or usage
// changed.
type Changeset struct {
	name      *string
	usage     *string
	embedding []float32
}

// New validates and creates a Changeset. An all-nil changeset is valid and
// represents the no-op update path.
func New(name, usage *string) (Changeset, error) {
	if name != nil {
		if *name == "" {
			return Changeset{}, fmt.Errorf("concept name must not be empty")
		}
		if len(*name) > concept.MaxNameSize {
			return Changeset{}, fmt.Errorf("concept name too long (max %d bytes)", concept.MaxNameSize)
		}
	}
	if usage != nil {
		if *usage == "" {
			return Changeset{}, fmt.Errorf("concept usage must not be empty")
		}
		if len(*usage) > concept.MaxUsageSize {
			return Changeset{}, fmt.Errorf("concept usage too long (max %d bytes)", concept.MaxUsageSize)
		}
	}
	return Changeset{name: name, usage: usage}, nil
}

// Name returns the new name, or nil if unchanged.
func (c Changeset) Name() *string { return c.name }

// Usage returns the new usage, or nil if unchanged.
func (c Changeset) Usage() *string { return c.usage }

// Embedding returns the recomputed vector, nil when text did not change.
func (c Changeset) Embedding() []float32 { return c.embedding }

// TouchesText reports whether the changeset includes name or usage.
func (c Changeset) TouchesText() bool { return c.name != nil || c.usage != nil }

// Empty reports whether no recognized field was supplied.
func (c Changeset) Empty() bool {
	return c.name == nil && c.usage == nil && c.embedding == nil
}

// WithEmbedding returns a copy carrying the recomputed vector.
func (c Changeset) WithEmbedding(v []float32) Changeset {
	return Changeset{name: c.name, usage: c.usage, embedding: v}
}
