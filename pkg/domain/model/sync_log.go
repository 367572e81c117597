package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
)

// SyncLogID is a UUID-based identifier for SyncLog
type SyncLogID string

// NewSyncLogID generates a new UUID v4 SyncLogID
func NewSyncLogID() SyncLogID {
	return SyncLogID(uuid.New().String())
}

// SyncStats are the counters of one sync run
type SyncStats struct {
	MeetingsProcessed int
	MeetingsNew       int
	ContactsCreated   int
	NeedsReviewCount  int
	Errors            []string
}

// SyncLog is the audit record of one sync run
type SyncLog struct {
	ID          SyncLogID
	SyncType    types.SyncType
	Status      types.SyncStatus
	Stats       SyncStats
	StartedAt   time.Time
	CompletedAt *time.Time
}
