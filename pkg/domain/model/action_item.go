package model

import (
	"time"

	"github.com/google/uuid"
)

// ActionItemID is a UUID-based identifier for ActionItem
type ActionItemID string

// NewActionItemID generates a new UUID v4 ActionItemID
func NewActionItemID() ActionItemID {
	return ActionItemID(uuid.New().String())
}

// ActionItem is a follow-up task extracted from a call
type ActionItem struct {
	ID          ActionItemID
	CallID      CallID
	Description string
	Assignee    string
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// SetCompleted toggles completion and stamps the completion time
func (a *ActionItem) SetCompleted(completed bool, now time.Time) {
	a.Completed = completed
	if completed {
		a.CompletedAt = &now
		return
	}
	a.CompletedAt = nil
}
