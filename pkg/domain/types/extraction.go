package types

import "strings"

// RelationshipType is the relationship the LLM infers between the owner and the external participant
type RelationshipType string

const (
	RelationshipClient   RelationshipType = "client"
	RelationshipProspect RelationshipType = "prospect"
	RelationshipUnknown  RelationshipType = "unknown"
)

// ParseRelationshipType normalizes s. Anything unrecognized becomes RelationshipUnknown.
func ParseRelationshipType(s string) RelationshipType {
	switch r := RelationshipType(strings.ToLower(strings.TrimSpace(s))); r {
	case RelationshipClient, RelationshipProspect:
		return r
	default:
		return RelationshipUnknown
	}
}

// PipelineStatus returns the initial pipeline status of a contact created with this relationship
func (r RelationshipType) PipelineStatus() PipelineStatus {
	switch r {
	case RelationshipClient:
		return PipelineStatusClient
	case RelationshipProspect:
		return PipelineStatusContacted
	default:
		return PipelineStatusNew
	}
}

// ExtractionConfidence is the self-reported confidence of an LLM extraction
type ExtractionConfidence string

const (
	ExtractionConfidenceHigh   ExtractionConfidence = "high"
	ExtractionConfidenceMedium ExtractionConfidence = "medium"
	ExtractionConfidenceLow    ExtractionConfidence = "low"
)

// ParseExtractionConfidence normalizes s. Anything unrecognized becomes ExtractionConfidenceLow.
func ParseExtractionConfidence(s string) ExtractionConfidence {
	switch c := ExtractionConfidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ExtractionConfidenceHigh, ExtractionConfidenceMedium:
		return c
	default:
		return ExtractionConfidenceLow
	}
}
