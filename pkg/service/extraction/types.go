package extraction

import (
	"context"
	"errors"

	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

// ErrExtractionFailed wraps every failure of Extract. Callers treat it as a soft failure.
var ErrExtractionFailed = errors.New("LLM extraction failed")

// Service infers the external participant of a meeting with an LLM
type Service interface {
	Extract(ctx context.Context, input Input) (*model.Extraction, error)
}

// Input is the meeting context given to the LLM
type Input struct {
	Title         string
	Summary       string
	Transcript    string
	InviteeEmails []string
	// OwnerName is excluded from the answer
	OwnerName string
}

// llmResponse mirrors the response schema. Nullable fields arrive as JSON null.
type llmResponse struct {
	FullName         *string `json:"full_name"`
	Company          *string `json:"company"`
	Email            *string `json:"email"`
	RelationshipType string  `json:"relationship_type"`
	Confidence       string  `json:"confidence"`
	Reasoning        string  `json:"reasoning"`
}
