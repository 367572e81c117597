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

type callDocument struct {
	ID              string              `firestore:"id"`
	RecordingID     string              `firestore:"recording_id"`
	Title           string              `firestore:"title"`
	Summary         string              `firestore:"summary"`
	CallDate        time.Time           `firestore:"call_date"`
	DurationMinutes int                 `firestore:"duration_minutes"`
	OrganizerEmail  string              `firestore:"organizer_email"`
	ContactID       string              `firestore:"contact_id"`
	AutoMatched     bool                `firestore:"auto_matched"`
	MatchConfidence string              `firestore:"match_confidence"`
	NeedsReview     bool                `firestore:"needs_review"`
	Extraction      *extractionDocument `firestore:"extraction,omitempty"`
	RawPayload      []byte              `firestore:"raw_payload,omitempty"`
	RawArchiveURL   string              `firestore:"raw_archive_url"`
	CreatedAt       time.Time           `firestore:"created_at"`
	UpdatedAt       time.Time           `firestore:"updated_at"`
}

type extractionDocument struct {
	FullName         string `firestore:"full_name"`
	Company          string `firestore:"company"`
	Email            string `firestore:"email"`
	RelationshipType string `firestore:"relationship_type"`
	Confidence       string `firestore:"confidence"`
	Reasoning        string `firestore:"reasoning"`
}

type recordingIndexDocument struct {
	RecordingID string `firestore:"recording_id"`
	CallID      string `firestore:"call_id"`
}

type callRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *callRepository) callsCollection() string {
	return collectionName(r.collectionPrefix, "calls")
}

func (r *callRepository) recordingsCollection() string {
	return collectionName(r.collectionPrefix, "call_recordings")
}

func callToDocument(call *model.Call) *callDocument {
	doc := &callDocument{
		ID:              string(call.ID),
		RecordingID:     call.RecordingID,
		Title:           call.Title,
		Summary:         call.Summary,
		CallDate:        call.CallDate,
		DurationMinutes: call.DurationMinutes,
		OrganizerEmail:  call.OrganizerEmail,
		ContactID:       string(call.ContactID),
		AutoMatched:     call.AutoMatched,
		MatchConfidence: string(call.MatchConfidence),
		NeedsReview:     call.NeedsReview,
		RawPayload:      call.RawPayload,
		RawArchiveURL:   call.RawArchiveURL,
		CreatedAt:       call.CreatedAt,
		UpdatedAt:       call.UpdatedAt,
	}
	if e := call.Extraction; e != nil {
		doc.Extraction = &extractionDocument{
			FullName:         e.FullName,
			Company:          e.Company,
			Email:            e.Email,
			RelationshipType: string(e.RelationshipType),
			Confidence:       string(e.Confidence),
			Reasoning:        e.Reasoning,
		}
	}
	return doc
}

func callToModel(doc *callDocument) *model.Call {
	call := &model.Call{
		ID:              model.CallID(doc.ID),
		RecordingID:     doc.RecordingID,
		Title:           doc.Title,
		Summary:         doc.Summary,
		CallDate:        doc.CallDate,
		DurationMinutes: doc.DurationMinutes,
		OrganizerEmail:  doc.OrganizerEmail,
		ContactID:       model.ContactID(doc.ContactID),
		AutoMatched:     doc.AutoMatched,
		MatchConfidence: types.MatchConfidence(doc.MatchConfidence),
		NeedsReview:     doc.NeedsReview,
		RawPayload:      doc.RawPayload,
		RawArchiveURL:   doc.RawArchiveURL,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
	if e := doc.Extraction; e != nil {
		call.Extraction = &model.Extraction{
			FullName:         e.FullName,
			Company:          e.Company,
			Email:            e.Email,
			RelationshipType: types.RelationshipType(e.RelationshipType),
			Confidence:       types.ExtractionConfidence(e.Confidence),
			Reasoning:        e.Reasoning,
		}
	}
	return call
}

func (r *callRepository) Create(ctx context.Context, call *model.Call) (*model.Call, error) {
	now := time.Now().UTC()
	created := *call
	if created.ID == "" {
		created.ID = model.NewCallID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	doc := callToDocument(&created)
	callRef := r.client.Collection(r.callsCollection()).Doc(doc.ID)
	indexRef := r.client.Collection(r.recordingsCollection()).Doc(keyDocID(call.RecordingID))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(indexRef, &recordingIndexDocument{RecordingID: call.RecordingID, CallID: doc.ID}); err != nil {
			return err
		}
		return tx.Create(callRef, doc)
	})
	if err != nil {
		if isAlreadyExists(err) {
			return nil, goerr.Wrap(interfaces.ErrDuplicate, "call already ingested", goerr.V("recording_id", call.RecordingID))
		}
		return nil, goerr.Wrap(err, "failed to create call", goerr.V("recording_id", call.RecordingID))
	}

	return callToModel(doc), nil
}

func (r *callRepository) Get(ctx context.Context, id model.CallID) (*model.Call, error) {
	snap, err := r.client.Collection(r.callsCollection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "call not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get call", goerr.V("id", id))
	}

	var doc callDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal call", goerr.V("id", id))
	}
	return callToModel(&doc), nil
}

func (r *callRepository) GetByRecordingID(ctx context.Context, recordingID string) (*model.Call, error) {
	snap, err := r.client.Collection(r.recordingsCollection()).Doc(keyDocID(recordingID)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "call not found", goerr.V("recording_id", recordingID))
		}
		return nil, goerr.Wrap(err, "failed to get recording index", goerr.V("recording_id", recordingID))
	}

	var idx recordingIndexDocument
	if err := snap.DataTo(&idx); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal recording index", goerr.V("recording_id", recordingID))
	}
	return r.Get(ctx, model.CallID(idx.CallID))
}

func (r *callRepository) Update(ctx context.Context, call *model.Call) (*model.Call, error) {
	ref := r.client.Collection(r.callsCollection()).Doc(string(call.ID))

	var doc *callDocument
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var existing callDocument
		if err := snap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to unmarshal call")
		}

		doc = callToDocument(call)
		doc.RecordingID = existing.RecordingID
		doc.CreatedAt = existing.CreatedAt
		doc.UpdatedAt = time.Now().UTC()
		return tx.Set(ref, doc)
	})
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "call not found", goerr.V("id", call.ID))
		}
		return nil, goerr.Wrap(err, "failed to update call", goerr.V("id", call.ID))
	}

	return callToModel(doc), nil
}

func (r *callRepository) List(ctx context.Context, opts ...interfaces.ListCallOption) ([]*model.Call, error) {
	cfg := interfaces.BuildListCallConfig(opts...)

	q := r.client.Collection(r.callsCollection()).Query
	if cfg.ContactID() != "" {
		q = q.Where("contact_id", "==", string(cfg.ContactID()))
	} else if cfg.Unmatched() {
		q = q.Where("contact_id", "==", "")
	}
	if cfg.NeedsReview() {
		q = q.Where("needs_review", "==", true)
	}
	q = q.OrderBy("call_date", firestore.Desc)
	if cfg.Offset() > 0 {
		q = q.Offset(cfg.Offset())
	}
	if cfg.Limit() > 0 {
		q = q.Limit(cfg.Limit())
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	calls := make([]*model.Call, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate calls")
		}

		var doc callDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal call")
		}
		call := callToModel(&doc)
		if cfg.Matches(call) {
			calls = append(calls, call)
		}
	}

	return calls, nil
}
