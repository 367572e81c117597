package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

type callRepository struct {
	mu          sync.RWMutex
	calls       map[model.CallID]*model.Call
	byRecording map[string]model.CallID
}

func newCallRepository() *callRepository {
	return &callRepository{
		calls:       make(map[model.CallID]*model.Call),
		byRecording: make(map[string]model.CallID),
	}
}

// copyCall creates a deep copy of a call
func copyCall(call *model.Call) *model.Call {
	copied := *call
	if call.Extraction != nil {
		ext := *call.Extraction
		copied.Extraction = &ext
	}
	if call.RawPayload != nil {
		copied.RawPayload = append([]byte(nil), call.RawPayload...)
	}
	return &copied
}

func (r *callRepository) Create(ctx context.Context, call *model.Call) (*model.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byRecording[call.RecordingID]; exists {
		return nil, goerr.Wrap(interfaces.ErrDuplicate, "call already ingested", goerr.V("recording_id", call.RecordingID))
	}

	now := time.Now().UTC()
	created := copyCall(call)
	if created.ID == "" {
		created.ID = model.NewCallID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.calls[created.ID] = created
	r.byRecording[created.RecordingID] = created.ID
	return copyCall(created), nil
}

func (r *callRepository) Get(ctx context.Context, id model.CallID) (*model.Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	call, exists := r.calls[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "call not found", goerr.V("id", id))
	}
	return copyCall(call), nil
}

func (r *callRepository) GetByRecordingID(ctx context.Context, recordingID string) (*model.Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byRecording[recordingID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "call not found", goerr.V("recording_id", recordingID))
	}
	return copyCall(r.calls[id]), nil
}

func (r *callRepository) Update(ctx context.Context, call *model.Call) (*model.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.calls[call.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "call not found", goerr.V("id", call.ID))
	}

	updated := copyCall(call)
	updated.RecordingID = existing.RecordingID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.calls[updated.ID] = updated
	return copyCall(updated), nil
}

func (r *callRepository) List(ctx context.Context, opts ...interfaces.ListCallOption) ([]*model.Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*model.Call, 0, len(r.calls))
	for _, call := range r.calls {
		all = append(all, copyCall(call))
	}

	return interfaces.BuildListCallConfig(opts...).Apply(all), nil
}
