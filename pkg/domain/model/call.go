package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
)

// SummaryMaxLength is the number of runes of a meeting summary kept on a call
const SummaryMaxLength = 5000

// CallID is a UUID-based identifier for Call
type CallID string

// NewCallID generates a new UUID v4 CallID
func NewCallID() CallID {
	return CallID(uuid.New().String())
}

// Call is the persisted record of an ingested meeting
type Call struct {
	ID              CallID
	RecordingID     string
	Title           string
	Summary         string
	CallDate        time.Time
	DurationMinutes int
	OrganizerEmail  string
	// ContactID is empty when the call is not linked to a contact
	ContactID       ContactID
	AutoMatched     bool
	MatchConfidence types.MatchConfidence
	NeedsReview     bool
	Extraction      *Extraction
	RawPayload      []byte
	RawArchiveURL   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLinked reports whether the call is linked to a contact
func (c *Call) IsLinked() bool {
	return c.ContactID != ""
}

// TruncateRunes shortens s to at most n runes
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
