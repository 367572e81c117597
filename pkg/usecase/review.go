package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
)

// DefaultOpenActionItemLimit is the number of open action items returned when no limit is given
const DefaultOpenActionItemLimit = 50

// ReviewUseCase serves the human side of the resolution engine: the review queue, manual
// linking and action item follow-up
type ReviewUseCase struct {
	repo interfaces.Repository
}

func NewReviewUseCase(repo interfaces.Repository) *ReviewUseCase {
	return &ReviewUseCase{repo: repo}
}

// CallDetail is a call with everything linked to it
type CallDetail struct {
	Call         *model.Call
	Contact      *model.Contact
	Participants []*model.Participant
	ActionItems  []*model.ActionItem
}

// ListCalls returns calls newest first, filtered by opts
func (uc *ReviewUseCase) ListCalls(ctx context.Context, opts ...interfaces.ListCallOption) ([]*model.Call, error) {
	calls, err := uc.repo.Call().List(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list calls")
	}
	return calls, nil
}

func (uc *ReviewUseCase) getCall(ctx context.Context, id model.CallID) (*model.Call, error) {
	call, err := uc.repo.Call().Get(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(ErrCallNotFound, "call not found", goerr.V(CallIDKey, id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get call", goerr.V(CallIDKey, id))
	}
	return call, nil
}

func (uc *ReviewUseCase) GetCall(ctx context.Context, id model.CallID) (*CallDetail, error) {
	call, err := uc.getCall(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &CallDetail{Call: call}

	if call.IsLinked() {
		contact, err := uc.repo.Contact().Get(ctx, call.ContactID)
		switch {
		case err == nil:
			detail.Contact = contact
		case errors.Is(err, interfaces.ErrNotFound):
			logging.From(ctx).Warn("call is linked to a missing contact", "call_id", id, "contact_id", call.ContactID)
		default:
			return nil, goerr.Wrap(err, "failed to get contact", goerr.V(ContactIDKey, call.ContactID))
		}
	}

	if detail.Participants, err = uc.repo.Participant().ListByCall(ctx, id); err != nil {
		return nil, goerr.Wrap(err, "failed to list participants", goerr.V(CallIDKey, id))
	}
	if detail.ActionItems, err = uc.repo.ActionItem().ListByCall(ctx, id); err != nil {
		return nil, goerr.Wrap(err, "failed to list action items", goerr.V(CallIDKey, id))
	}
	return detail, nil
}

// LinkContact links a call to a contact by hand. The link is recorded with manual confidence
// and clears the review flag.
func (uc *ReviewUseCase) LinkContact(ctx context.Context, callID model.CallID, contactID model.ContactID) (*model.Call, error) {
	call, err := uc.getCall(ctx, callID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.repo.Contact().Get(ctx, contactID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrContactNotFound, "contact not found", goerr.V(ContactIDKey, contactID))
		}
		return nil, goerr.Wrap(err, "failed to get contact", goerr.V(ContactIDKey, contactID))
	}

	call.ContactID = contactID
	call.AutoMatched = false
	call.MatchConfidence = types.MatchConfidenceManual
	call.NeedsReview = false

	updated, err := uc.repo.Call().Update(ctx, call)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update call", goerr.V(CallIDKey, callID))
	}

	err = uc.repo.Participant().Add(ctx, &model.Participant{
		CallID:    callID,
		ContactID: contactID,
		Source:    types.ParticipantSourceManual,
	})
	if err != nil && !errors.Is(err, interfaces.ErrDuplicate) {
		return nil, goerr.Wrap(err, "failed to add participant", goerr.V(CallIDKey, callID), goerr.V(ContactIDKey, contactID))
	}

	logging.From(ctx).Info("call linked manually", "call_id", callID, "contact_id", contactID)
	return updated, nil
}

// SetNeedsReview sets or clears the review flag without touching the contact link
func (uc *ReviewUseCase) SetNeedsReview(ctx context.Context, callID model.CallID, needsReview bool) (*model.Call, error) {
	call, err := uc.getCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call.NeedsReview == needsReview {
		return call, nil
	}

	call.NeedsReview = needsReview
	updated, err := uc.repo.Call().Update(ctx, call)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update call", goerr.V(CallIDKey, callID))
	}
	return updated, nil
}

func (uc *ReviewUseCase) ListSyncLogs(ctx context.Context, limit int) ([]*model.SyncLog, error) {
	logs, err := uc.repo.SyncLog().List(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list sync logs")
	}
	return logs, nil
}

func (uc *ReviewUseCase) ListActionItems(ctx context.Context, callID model.CallID) ([]*model.ActionItem, error) {
	if _, err := uc.getCall(ctx, callID); err != nil {
		return nil, err
	}
	items, err := uc.repo.ActionItem().ListByCall(ctx, callID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list action items", goerr.V(CallIDKey, callID))
	}
	return items, nil
}

// ListOpenActionItems returns incomplete action items, newest first
func (uc *ReviewUseCase) ListOpenActionItems(ctx context.Context, limit int) ([]*model.ActionItem, error) {
	if limit <= 0 {
		limit = DefaultOpenActionItemLimit
	}
	items, err := uc.repo.ActionItem().ListOpen(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list open action items")
	}
	return items, nil
}

func (uc *ReviewUseCase) SetActionItemCompleted(ctx context.Context, id model.ActionItemID, completed bool) (*model.ActionItem, error) {
	item, err := uc.repo.ActionItem().Get(ctx, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(ErrActionItemNotFound, "action item not found", goerr.V(ActionItemIDKey, id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get action item", goerr.V(ActionItemIDKey, id))
	}
	if item.Completed == completed {
		return item, nil
	}

	item.SetCompleted(completed, time.Now().UTC())
	updated, err := uc.repo.ActionItem().Update(ctx, item)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update action item", goerr.V(ActionItemIDKey, id))
	}
	return updated, nil
}
