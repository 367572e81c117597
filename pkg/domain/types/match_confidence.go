package types

import "fmt"

// MatchConfidence tags how a call was linked to its contact.
type MatchConfidence string

const (
	MatchConfidenceHigh           MatchConfidence = "high"
	MatchConfidenceMedium         MatchConfidence = "medium"
	MatchConfidenceAutoInvitee    MatchConfidence = "auto_invitee"
	MatchConfidenceAutoTranscript MatchConfidence = "auto_transcript"
	MatchConfidenceAutoTitle      MatchConfidence = "auto_title"
	MatchConfidenceLLMHigh        MatchConfidence = "llm_high"
	MatchConfidenceManual         MatchConfidence = "manual"
)

// AllMatchConfidences returns all valid match confidences in cascade order
func AllMatchConfidences() []MatchConfidence {
	return []MatchConfidence{
		MatchConfidenceHigh,
		MatchConfidenceMedium,
		MatchConfidenceAutoInvitee,
		MatchConfidenceAutoTranscript,
		MatchConfidenceAutoTitle,
		MatchConfidenceLLMHigh,
		MatchConfidenceManual,
	}
}

// IsValid checks if the match confidence is valid
func (c MatchConfidence) IsValid() bool {
	switch c {
	case MatchConfidenceHigh,
		MatchConfidenceMedium,
		MatchConfidenceAutoInvitee,
		MatchConfidenceAutoTranscript,
		MatchConfidenceAutoTitle,
		MatchConfidenceLLMHigh,
		MatchConfidenceManual:
		return true
	default:
		return false
	}
}

// IsAutoCreated reports whether the confidence implies the contact was created by the cascade
func (c MatchConfidence) IsAutoCreated() bool {
	switch c {
	case MatchConfidenceAutoInvitee,
		MatchConfidenceAutoTranscript,
		MatchConfidenceAutoTitle,
		MatchConfidenceLLMHigh:
		return true
	default:
		return false
	}
}

func (c MatchConfidence) String() string {
	return string(c)
}

// ParseMatchConfidence parses a string into a MatchConfidence
func ParseMatchConfidence(s string) (MatchConfidence, error) {
	c := MatchConfidence(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid match confidence: %s", s)
	}
	return c, nil
}
