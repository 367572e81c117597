package model

import (
	"strings"
	"time"

	"github.com/secmon-lab/meetlink/pkg/domain/types"
)

// Meeting is a meeting record as delivered by the recording service, already normalized.
// It is read-only input to the resolution engine.
type Meeting struct {
	RecordingID     string
	Title           string
	Summary         string
	Transcript      string
	StartedAt       time.Time
	DurationMinutes int
	// AttendeeLists holds one list per source field in precedence order
	AttendeeLists []AttendeeList
	RecordedBy    *Invitee
	ActionItems   []MeetingActionItem
	RawPayload    []byte
}

// AttendeeList is the content of one attendee field of the meeting payload
type AttendeeList struct {
	Source  types.ParticipantSource
	Entries []Invitee
}

// Invitee is a person listed on a meeting
type Invitee struct {
	Name  string
	Email string
	// IsExternal is nil when the source does not mark the invitee
	IsExternal *bool
}

// MeetingActionItem is an action item attached to a meeting by the recording service
type MeetingActionItem struct {
	Description string
	Assignee    string
	Completed   bool
}

// Invitees returns the attendee entries of every list, in precedence order
func (m *Meeting) Invitees() []Invitee {
	var out []Invitee
	for _, l := range m.AttendeeLists {
		out = append(out, l.Entries...)
	}
	return out
}

// InviteeEmails returns the non-empty invitee emails, lowercased and deduplicated
func (m *Meeting) InviteeEmails() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, inv := range m.Invitees() {
		email := NormalizeEmail(inv.Email)
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
