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

type actionItemRepository struct {
	mu    sync.RWMutex
	items map[model.ActionItemID]*model.ActionItem
	seq   map[model.ActionItemID]int
	next  int
}

func newActionItemRepository() *actionItemRepository {
	return &actionItemRepository{
		items: make(map[model.ActionItemID]*model.ActionItem),
		seq:   make(map[model.ActionItemID]int),
	}
}

func copyActionItem(item *model.ActionItem) *model.ActionItem {
	copied := *item
	if item.CompletedAt != nil {
		t := *item.CompletedAt
		copied.CompletedAt = &t
	}
	return &copied
}

func (r *actionItemRepository) Create(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyActionItem(item)
	if created.ID == "" {
		created.ID = model.NewActionItemID()
	}
	created.CreatedAt = time.Now().UTC()

	r.items[created.ID] = created
	r.seq[created.ID] = r.next
	r.next++
	return copyActionItem(created), nil
}

func (r *actionItemRepository) Get(ctx context.Context, id model.ActionItemID) (*model.ActionItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action item not found", goerr.V("id", id))
	}
	return copyActionItem(item), nil
}

func (r *actionItemRepository) Update(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.items[item.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action item not found", goerr.V("id", item.ID))
	}

	updated := copyActionItem(item)
	updated.CallID = existing.CallID
	updated.CreatedAt = existing.CreatedAt
	r.items[updated.ID] = updated
	return copyActionItem(updated), nil
}

// sorted returns matching items; ascending creation order unless newestFirst
func (r *actionItemRepository) sorted(match func(*model.ActionItem) bool, newestFirst bool) []*model.ActionItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.ActionItem, 0)
	for _, item := range r.items {
		if match(item) {
			out = append(out, copyActionItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return r.seq[out[i].ID] > r.seq[out[j].ID]
		}
		return r.seq[out[i].ID] < r.seq[out[j].ID]
	})
	return out
}

func (r *actionItemRepository) ListByCall(ctx context.Context, callID model.CallID) ([]*model.ActionItem, error) {
	return r.sorted(func(item *model.ActionItem) bool { return item.CallID == callID }, false), nil
}

func (r *actionItemRepository) ListOpen(ctx context.Context, limit int) ([]*model.ActionItem, error) {
	out := r.sorted(func(item *model.ActionItem) bool { return !item.Completed }, true)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
