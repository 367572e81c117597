package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Configuration errors
	ErrSourceNotConfigured = errors.New("meeting source is not configured")

	// Run errors
	ErrSyncInProgress = errors.New("another sync run is in progress")

	// Not found errors
	ErrCallNotFound       = errors.New("call not found")
	ErrContactNotFound    = errors.New("contact not found")
	ErrActionItemNotFound = errors.New("action item not found")

	// Validation errors
	ErrEmptyCandidate = errors.New("contact candidate has neither name nor email")
)

// Context keys for error values
const (
	CallIDKey       = "call_id"
	ContactIDKey    = "contact_id"
	ActionItemIDKey = "action_item_id"
	RecordingIDKey  = "recording_id"
)
