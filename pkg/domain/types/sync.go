package types

import "fmt"

// SyncStatus is the lifecycle state of a sync log entry
type SyncStatus string

const (
	SyncStatusStarted   SyncStatus = "started"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed
func (s SyncStatus) IsTerminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

func (s SyncStatus) String() string {
	return string(s)
}

// SyncType distinguishes operator triggered runs from the periodic worker
type SyncType string

const (
	SyncTypeManual    SyncType = "manual"
	SyncTypeScheduled SyncType = "scheduled"
)

func (t SyncType) String() string {
	return string(t)
}

// ParseSyncType parses a string into a SyncType
func ParseSyncType(s string) (SyncType, error) {
	switch SyncType(s) {
	case SyncTypeManual, SyncTypeScheduled:
		return SyncType(s), nil
	default:
		return "", fmt.Errorf("invalid sync type: %s", s)
	}
}
