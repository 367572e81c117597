package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

type participantKey struct {
	callID    model.CallID
	contactID model.ContactID
}

type participantRepository struct {
	mu    sync.RWMutex
	links map[participantKey]*model.Participant
	order []participantKey
}

func newParticipantRepository() *participantRepository {
	return &participantRepository{
		links: make(map[participantKey]*model.Participant),
	}
}

func (r *participantRepository) Add(ctx context.Context, p *model.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := participantKey{callID: p.CallID, contactID: p.ContactID}
	if _, exists := r.links[key]; exists {
		return goerr.Wrap(interfaces.ErrDuplicate, "participant already linked",
			goerr.V("call_id", p.CallID), goerr.V("contact_id", p.ContactID))
	}

	created := *p
	created.CreatedAt = time.Now().UTC()
	r.links[key] = &created
	r.order = append(r.order, key)
	return nil
}

func (r *participantRepository) list(match func(*model.Participant) bool) []*model.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Participant, 0)
	for _, key := range r.order {
		p := r.links[key]
		if match(p) {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out
}

func (r *participantRepository) ListByCall(ctx context.Context, callID model.CallID) ([]*model.Participant, error) {
	return r.list(func(p *model.Participant) bool { return p.CallID == callID }), nil
}

func (r *participantRepository) ListByContact(ctx context.Context, contactID model.ContactID) ([]*model.Participant, error) {
	return r.list(func(p *model.Participant) bool { return p.ContactID == contactID }), nil
}
