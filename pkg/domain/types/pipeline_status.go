package types

import "fmt"

// PipelineStatus is the sales pipeline stage of a contact
type PipelineStatus string

const (
	PipelineStatusNew           PipelineStatus = "new"
	PipelineStatusContacted     PipelineStatus = "contacted"
	PipelineStatusResponded     PipelineStatus = "responded"
	PipelineStatusCallScheduled PipelineStatus = "call_scheduled"
	PipelineStatusClosed        PipelineStatus = "closed"
	PipelineStatusPilot         PipelineStatus = "pilot"
	PipelineStatusClient        PipelineStatus = "client"
	PipelineStatusLost          PipelineStatus = "lost"
)

// AllPipelineStatuses returns all valid pipeline statuses
func AllPipelineStatuses() []PipelineStatus {
	return []PipelineStatus{
		PipelineStatusNew,
		PipelineStatusContacted,
		PipelineStatusResponded,
		PipelineStatusCallScheduled,
		PipelineStatusClosed,
		PipelineStatusPilot,
		PipelineStatusClient,
		PipelineStatusLost,
	}
}

// IsValid checks if the pipeline status is valid
func (s PipelineStatus) IsValid() bool {
	for _, v := range AllPipelineStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

func (s PipelineStatus) String() string {
	return string(s)
}

// ParsePipelineStatus parses a string into a PipelineStatus
func ParsePipelineStatus(s string) (PipelineStatus, error) {
	status := PipelineStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid pipeline status: %s", s)
	}
	return status, nil
}
