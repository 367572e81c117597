package model

import "github.com/secmon-lab/meetlink/pkg/domain/types"

// Extraction is the structured identity of the external participant inferred by the LLM
type Extraction struct {
	FullName         string                     `json:"full_name"`
	Company          string                     `json:"company"`
	Email            string                     `json:"email"`
	RelationshipType types.RelationshipType     `json:"relationship_type"`
	Confidence       types.ExtractionConfidence `json:"confidence"`
	Reasoning        string                     `json:"reasoning"`
}

// CanCreateContact reports whether the extraction is trusted enough to create a contact
func (e *Extraction) CanCreateContact() bool {
	return e != nil && e.Confidence == types.ExtractionConfidenceHigh && e.FullName != ""
}
