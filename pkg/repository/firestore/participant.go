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

type participantDocument struct {
	CallID    string    `firestore:"call_id"`
	ContactID string    `firestore:"contact_id"`
	Source    string    `firestore:"source"`
	CreatedAt time.Time `firestore:"created_at"`
}

type participantRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *participantRepository) participantsCollection() string {
	return collectionName(r.collectionPrefix, "call_participants")
}

func (r *participantRepository) Add(ctx context.Context, p *model.Participant) error {
	doc := &participantDocument{
		CallID:    string(p.CallID),
		ContactID: string(p.ContactID),
		Source:    string(p.Source),
		CreatedAt: time.Now().UTC(),
	}

	ref := r.client.Collection(r.participantsCollection()).Doc(doc.CallID + "_" + doc.ContactID)
	if _, err := ref.Create(ctx, doc); err != nil {
		if isAlreadyExists(err) {
			return goerr.Wrap(interfaces.ErrDuplicate, "participant already linked",
				goerr.V("call_id", p.CallID), goerr.V("contact_id", p.ContactID))
		}
		return goerr.Wrap(err, "failed to add participant",
			goerr.V("call_id", p.CallID), goerr.V("contact_id", p.ContactID))
	}
	return nil
}

func (r *participantRepository) list(ctx context.Context, field, value string) ([]*model.Participant, error) {
	iter := r.client.Collection(r.participantsCollection()).
		Where(field, "==", value).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	out := make([]*model.Participant, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate participants", goerr.V(field, value))
		}

		var doc participantDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal participant")
		}
		out = append(out, &model.Participant{
			CallID:    model.CallID(doc.CallID),
			ContactID: model.ContactID(doc.ContactID),
			Source:    types.ParticipantSource(doc.Source),
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, nil
}

func (r *participantRepository) ListByCall(ctx context.Context, callID model.CallID) ([]*model.Participant, error) {
	return r.list(ctx, "call_id", string(callID))
}

func (r *participantRepository) ListByContact(ctx context.Context, contactID model.ContactID) ([]*model.Participant, error) {
	return r.list(ctx, "contact_id", string(contactID))
}
