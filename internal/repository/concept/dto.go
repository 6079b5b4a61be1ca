package concept

import (
	"encoding/json"
	"fmt"

	domconcept "github.com/kailas-cloud/conceptd/internal/domain/concept"
)

// conceptDoc is the persisted JSON document shape.
type conceptDoc struct {
	Name                string    `json:"name"`
	Usage               string    `json:"usage"`
	NormalizedEmbedding []float32 `json:"normalized_embedding,omitempty"`
}

// buildDoc converts a domain Concept into its storage document.
func buildDoc(c *domconcept.Concept) conceptDoc {
	return conceptDoc{
		Name:                c.Name(),
		Usage:               c.Usage(),
		NormalizedEmbedding: c.NormalizedEmbedding(),
	}
}

// parseJSONGetResult hydrates a Concept from a JSON.GET "$" result, which
// wraps the document in a one-element array.
func parseJSONGetResult(id domconcept.ID, raw []byte) (domconcept.Concept, error) {
	var docs []conceptDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		// Non-array form (older path queries); try the bare document.
		var doc conceptDoc
		if err2 := json.Unmarshal(raw, &doc); err2 != nil {
			return domconcept.Concept{}, fmt.Errorf("unmarshal concept %s: %w", id, err)
		}
		return fromDoc(id, doc), nil
	}
	if len(docs) == 0 {
		return domconcept.Concept{}, fmt.Errorf("empty json.get result for %s", id)
	}
	return fromDoc(id, docs[0]), nil
}

func fromDoc(id domconcept.ID, doc conceptDoc) domconcept.Concept {
	return domconcept.Reconstruct(id, doc.Name, doc.Usage, doc.NormalizedEmbedding)
}
