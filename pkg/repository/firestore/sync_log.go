package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type syncLogDocument struct {
	ID                string     `firestore:"id"`
	SyncType          string     `firestore:"sync_type"`
	Status            string     `firestore:"status"`
	MeetingsProcessed int        `firestore:"meetings_processed"`
	MeetingsNew       int        `firestore:"meetings_new"`
	ContactsCreated   int        `firestore:"contacts_created"`
	NeedsReviewCount  int        `firestore:"needs_review_count"`
	Errors            []string   `firestore:"errors"`
	StartedAt         time.Time  `firestore:"started_at"`
	CompletedAt       *time.Time `firestore:"completed_at"`
}

type syncLogRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *syncLogRepository) syncLogsCollection() string {
	return collectionName(r.collectionPrefix, "sync_logs")
}

func syncLogToDocument(log *model.SyncLog) *syncLogDocument {
	return &syncLogDocument{
		ID:                string(log.ID),
		SyncType:          string(log.SyncType),
		Status:            string(log.Status),
		MeetingsProcessed: log.Stats.MeetingsProcessed,
		MeetingsNew:       log.Stats.MeetingsNew,
		ContactsCreated:   log.Stats.ContactsCreated,
		NeedsReviewCount:  log.Stats.NeedsReviewCount,
		Errors:            log.Stats.Errors,
		StartedAt:         log.StartedAt,
		CompletedAt:       log.CompletedAt,
	}
}

func syncLogToModel(doc *syncLogDocument) *model.SyncLog {
	return &model.SyncLog{
		ID:       model.SyncLogID(doc.ID),
		SyncType: types.SyncType(doc.SyncType),
		Status:   types.SyncStatus(doc.Status),
		Stats: model.SyncStats{
			MeetingsProcessed: doc.MeetingsProcessed,
			MeetingsNew:       doc.MeetingsNew,
			ContactsCreated:   doc.ContactsCreated,
			NeedsReviewCount:  doc.NeedsReviewCount,
			Errors:            doc.Errors,
		},
		StartedAt:   doc.StartedAt,
		CompletedAt: doc.CompletedAt,
	}
}

func (r *syncLogRepository) Create(ctx context.Context, log *model.SyncLog) (*model.SyncLog, error) {
	created := *log
	if created.ID == "" {
		created.ID = model.NewSyncLogID()
	}
	if created.StartedAt.IsZero() {
		created.StartedAt = time.Now().UTC()
	}

	doc := syncLogToDocument(&created)
	if _, err := r.client.Collection(r.syncLogsCollection()).Doc(doc.ID).Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create sync log")
	}
	return syncLogToModel(doc), nil
}

func (r *syncLogRepository) Update(ctx context.Context, log *model.SyncLog) (*model.SyncLog, error) {
	ref := r.client.Collection(r.syncLogsCollection()).Doc(string(log.ID))
	snap, err := ref.Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "sync log not found", goerr.V("id", log.ID))
		}
		return nil, goerr.Wrap(err, "failed to get sync log", goerr.V("id", log.ID))
	}

	var existing syncLogDocument
	if err := snap.DataTo(&existing); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal sync log", goerr.V("id", log.ID))
	}

	doc := syncLogToDocument(log)
	doc.StartedAt = existing.StartedAt
	if _, err := ref.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to update sync log", goerr.V("id", log.ID))
	}
	return syncLogToModel(doc), nil
}

func (r *syncLogRepository) List(ctx context.Context, limit int) ([]*model.SyncLog, error) {
	q := r.client.Collection(r.syncLogsCollection()).OrderBy("started_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := make([]*model.SyncLog, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate sync logs")
		}

		var doc syncLogDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal sync log")
		}
		out = append(out, syncLogToModel(&doc))
	}
	return out, nil
}
