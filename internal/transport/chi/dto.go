package chi

import (
	domconcept "github.com/kailas-cloud/conceptd/internal/domain/concept"
)

// errorCode is the machine-readable error class in error responses.
type errorCode string

const (
	codeBadRequest     errorCode = "bad_request"
	codeInvalidID      errorCode = "invalid_id"
	codeNotFound       errorCode = "concept_not_found"
	codeEmbeddingError errorCode = "embedding_provider_error"
	codeUnauthorized   errorCode = "unauthorized"
	codeInternalError  errorCode = "internal_error"
)

// errorResponse is the body of every failure response.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// createConceptRequest carries the POST /concepts body. A client-supplied
// id is accepted and ignored; the store assigns its own.
type createConceptRequest struct {
	ID                  string    `json:"id,omitempty"`
	Name                string    `json:"name"`
	Usage               string    `json:"usage"`
	NormalizedEmbedding []float32 `json:"normalized_embedding,omitempty"`
}

// updateConceptRequest carries the PUT /concepts/{id} body. Absent or null
// fields are left untouched.
type updateConceptRequest struct {
	Name  *string `json:"name"`
	Usage *string `json:"usage"`
}

// conceptResponse is the canonical record shape returned to clients.
type conceptResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Usage               string    `json:"usage"`
	NormalizedEmbedding []float32 `json:"normalized_embedding,omitempty"`
}

// deleteConceptResponse confirms a successful delete.
type deleteConceptResponse struct {
	Message string `json:"message"`
}

func conceptToResponse(c *domconcept.Concept) conceptResponse {
	return conceptResponse{
		ID:                  c.ID().String(),
		Name:                c.Name(),
		Usage:               c.Usage(),
		NormalizedEmbedding: c.NormalizedEmbedding(),
	}
}
