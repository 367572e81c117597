package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
)

// ContactID is a UUID-based identifier for Contact
type ContactID string

// NewContactID generates a new UUID v4 ContactID
func NewContactID() ContactID {
	return ContactID(uuid.New().String())
}

// Contact is a business contact (prospect) in the CRM store
type Contact struct {
	ID          ContactID
	Name        string
	Company     string
	Email       string
	Status      types.PipelineStatus
	Notes       string
	AutoCreated bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Participant links a call to a contact that took part in it
type Participant struct {
	CallID    CallID
	ContactID ContactID
	Source    types.ParticipantSource
	CreatedAt time.Time
}
