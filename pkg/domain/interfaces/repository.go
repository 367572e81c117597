package interfaces

import (
	"context"

	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

// Repository defines the interface for data persistence
type Repository interface {
	Call() CallRepository
	Contact() ContactRepository
	Participant() ParticipantRepository
	ActionItem() ActionItemRepository
	SyncLog() SyncLogRepository

	Close() error
}

// CallRepository stores ingested meetings. RecordingID is unique.
type CallRepository interface {
	// Create inserts a call. It returns ErrDuplicate when the recording ID already exists.
	Create(ctx context.Context, call *model.Call) (*model.Call, error)
	Get(ctx context.Context, id model.CallID) (*model.Call, error)
	// GetByRecordingID returns ErrNotFound when the recording has never been ingested.
	GetByRecordingID(ctx context.Context, recordingID string) (*model.Call, error)
	// Update replaces the mutable fields of a call. ID, RecordingID and CreatedAt are preserved.
	Update(ctx context.Context, call *model.Call) (*model.Call, error)
	// List returns calls ordered by call date, newest first.
	List(ctx context.Context, opts ...ListCallOption) ([]*model.Call, error)
}

// ContactRepository stores contacts. Email is unique case-insensitively when set.
type ContactRepository interface {
	// Create inserts a contact. It returns ErrDuplicate when another contact has the same email.
	Create(ctx context.Context, contact *model.Contact) (*model.Contact, error)
	Get(ctx context.Context, id model.ContactID) (*model.Contact, error)
	Update(ctx context.Context, contact *model.Contact) (*model.Contact, error)
	// GetByEmail matches case-insensitively and returns ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*model.Contact, error)
	// FindByName returns contacts whose name equals name case-insensitively.
	FindByName(ctx context.Context, name string) ([]*model.Contact, error)
	// SearchByName returns contacts whose name contains fragment case-insensitively.
	SearchByName(ctx context.Context, fragment string) ([]*model.Contact, error)
	// SearchByCompany returns contacts whose company contains fragment case-insensitively.
	SearchByCompany(ctx context.Context, fragment string) ([]*model.Contact, error)
	List(ctx context.Context) ([]*model.Contact, error)
}

// ParticipantRepository stores call to contact links. (CallID, ContactID) is unique.
type ParticipantRepository interface {
	// Add inserts a link. It returns ErrDuplicate when the link already exists.
	Add(ctx context.Context, p *model.Participant) error
	ListByCall(ctx context.Context, callID model.CallID) ([]*model.Participant, error)
	ListByContact(ctx context.Context, contactID model.ContactID) ([]*model.Participant, error)
}

// ActionItemRepository stores action items of calls
type ActionItemRepository interface {
	Create(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error)
	Get(ctx context.Context, id model.ActionItemID) (*model.ActionItem, error)
	Update(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error)
	ListByCall(ctx context.Context, callID model.CallID) ([]*model.ActionItem, error)
	// ListOpen returns incomplete items, newest first. limit <= 0 returns every item.
	ListOpen(ctx context.Context, limit int) ([]*model.ActionItem, error)
}

// SyncLogRepository stores sync run audit records
type SyncLogRepository interface {
	Create(ctx context.Context, log *model.SyncLog) (*model.SyncLog, error)
	Update(ctx context.Context, log *model.SyncLog) (*model.SyncLog, error)
	// List returns the most recent logs first. limit <= 0 returns every log.
	List(ctx context.Context, limit int) ([]*model.SyncLog, error)
}
