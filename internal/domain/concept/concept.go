package concept

import (
	"fmt"

	"github.com/kailas-cloud/conceptd/internal/domain"
)

// MaxNameSize and MaxUsageSize bound the textual fields in bytes.
const (
	MaxNameSize  = 512
	MaxUsageSize = 65536 // 64KB
)

// Concept is the concept aggregate (immutable value object): a name/usage
// pair plus the embedding derived from them.
type Concept struct {
	id        ID
	name      string
	usage     string
	embedding []float32
}

// New validates and creates a Concept without an identifier; the store
// assigns one on insert. The embedding is optional on creation (it may be
// precomputed upstream) and is nil until the first update recomputes it.
// A supplied embedding is scaled to unit norm so a client cannot persist an
// unnormalized vector.
func New(name, usage string, embedding []float32) (Concept, error) {
	if name == "" {
		return Concept{}, fmt.Errorf("concept name is required")
	}
	if len(name) > MaxNameSize {
		return Concept{}, fmt.Errorf("concept name too long (max %d bytes)", MaxNameSize)
	}
	if usage == "" {
		return Concept{}, fmt.Errorf("concept usage is required")
	}
	if len(usage) > MaxUsageSize {
		return Concept{}, fmt.Errorf("concept usage too long (max %d bytes)", MaxUsageSize)
	}
	return Concept{name: name, usage: usage, embedding: domain.Normalize(embedding)}, nil
}

// Reconstruct creates a Concept without validation (storage hydration).
func Reconstruct(id ID, name, usage string, embedding []float32) Concept {
	return Concept{id: id, name: name, usage: usage, embedding: embedding}
}

// ID returns the store-assigned identifier (zero before insert).
func (c *Concept) ID() ID { return c.id }

// Name returns the short text label.
func (c *Concept) Name() string { return c.name }

// Usage returns the free-text usage description.
func (c *Concept) Usage() string { return c.usage }

// NormalizedEmbedding returns the derived embedding vector, nil when absent.
func (c *Concept) NormalizedEmbedding() []float32 { return c.embedding }

// WithID returns a copy with the given identifier set.
func (c *Concept) WithID(id ID) Concept {
	return Concept{id: id, name: c.name, usage: c.usage, embedding: c.embedding}
}
