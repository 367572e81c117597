package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"google.golang.org/api/iterator"
)

type actionItemDocument struct {
	ID          string     `firestore:"id"`
	CallID      string     `firestore:"call_id"`
	Description string     `firestore:"description"`
	Assignee    string     `firestore:"assignee"`
	Completed   bool       `firestore:"completed"`
	CompletedAt *time.Time `firestore:"completed_at"`
	CreatedAt   time.Time  `firestore:"created_at"`
}

type actionItemRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *actionItemRepository) actionItemsCollection() string {
	return collectionName(r.collectionPrefix, "action_items")
}

func actionItemToDocument(item *model.ActionItem) *actionItemDocument {
	return &actionItemDocument{
		ID:          string(item.ID),
		CallID:      string(item.CallID),
		Description: item.Description,
		Assignee:    item.Assignee,
		Completed:   item.Completed,
		CompletedAt: item.CompletedAt,
		CreatedAt:   item.CreatedAt,
	}
}

func actionItemToModel(doc *actionItemDocument) *model.ActionItem {
	return &model.ActionItem{
		ID:          model.ActionItemID(doc.ID),
		CallID:      model.CallID(doc.CallID),
		Description: doc.Description,
		Assignee:    doc.Assignee,
		Completed:   doc.Completed,
		CompletedAt: doc.CompletedAt,
		CreatedAt:   doc.CreatedAt,
	}
}

func (r *actionItemRepository) Create(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error) {
	created := *item
	if created.ID == "" {
		created.ID = model.NewActionItemID()
	}
	created.CreatedAt = time.Now().UTC()

	doc := actionItemToDocument(&created)
	if _, err := r.client.Collection(r.actionItemsCollection()).Doc(doc.ID).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create action item", goerr.V("call_id", item.CallID))
	}
	return actionItemToModel(doc), nil
}

func (r *actionItemRepository) Get(ctx context.Context, id model.ActionItemID) (*model.ActionItem, error) {
	snap, err := r.client.Collection(r.actionItemsCollection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "action item not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get action item", goerr.V("id", id))
	}

	var doc actionItemDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal action item", goerr.V("id", id))
	}
	return actionItemToModel(&doc), nil
}

func (r *actionItemRepository) Update(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error) {
	existing, err := r.Get(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	doc := actionItemToDocument(item)
	doc.CallID = string(existing.CallID)
	doc.CreatedAt = existing.CreatedAt
	if _, err := r.client.Collection(r.actionItemsCollection()).Doc(doc.ID).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update action item", goerr.V("id", item.ID))
	}
	return actionItemToModel(doc), nil
}

func (r *actionItemRepository) collect(iter *firestore.DocumentIterator) ([]*model.ActionItem, error) {
	defer iter.Stop()

	out := make([]*model.ActionItem, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate action items")
		}

		var doc actionItemDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal action item")
		}
		out = append(out, actionItemToModel(&doc))
	}
	return out, nil
}

func (r *actionItemRepository) ListByCall(ctx context.Context, callID model.CallID) ([]*model.ActionItem, error) {
	iter := r.client.Collection(r.actionItemsCollection()).
		Where("call_id", "==", string(callID)).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	return r.collect(iter)
}

func (r *actionItemRepository) ListOpen(ctx context.Context, limit int) ([]*model.ActionItem, error) {
	q := r.client.Collection(r.actionItemsCollection()).
		Where("completed", "==", false).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.collect(q.Documents(ctx))
}
