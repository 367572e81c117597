package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

type syncLogRepository struct {
	mu   sync.RWMutex
	logs map[model.SyncLogID]*model.SyncLog
}

func newSyncLogRepository() *syncLogRepository {
	return &syncLogRepository{
		logs: make(map[model.SyncLogID]*model.SyncLog),
	}
}

func copySyncLog(log *model.SyncLog) *model.SyncLog {
	copied := *log
	copied.Stats.Errors = append([]string(nil), log.Stats.Errors...)
	if log.CompletedAt != nil {
		t := *log.CompletedAt
		copied.CompletedAt = &t
	}
	return &copied
}

func (r *syncLogRepository) Create(ctx context.Context, log *model.SyncLog) (*model.SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copySyncLog(log)
	if created.ID == "" {
		created.ID = model.NewSyncLogID()
	}
	if created.StartedAt.IsZero() {
		created.StartedAt = time.Now().UTC()
	}

	r.logs[created.ID] = created
	return copySyncLog(created), nil
}

func (r *syncLogRepository) Update(ctx context.Context, log *model.SyncLog) (*model.SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.logs[log.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "sync log not found", goerr.V("id", log.ID))
	}

	updated := copySyncLog(log)
	updated.StartedAt = existing.StartedAt
	r.logs[updated.ID] = updated
	return copySyncLog(updated), nil
}

func (r *syncLogRepository) List(ctx context.Context, limit int) ([]*model.SyncLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.SyncLog, 0, len(r.logs))
	for _, log := range r.logs {
		out = append(out, copySyncLog(log))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
