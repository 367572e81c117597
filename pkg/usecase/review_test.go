package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/repository/memory"
	"github.com/secmon-lab/meetlink/pkg/usecase"
)

func seedReviewCall(t *testing.T, repo *memory.Memory, recordingID string, needsReview bool) *model.Call {
	t.Helper()
	call, err := repo.Call().Create(context.Background(), &model.Call{
		RecordingID: recordingID,
		Title:       "Quarterly planning",
		CallDate:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		NeedsReview: needsReview,
	})
	gt.NoError(t, err).Required()
	return call
}

func TestReviewUseCase_LinkContact(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.NewReviewUseCase(repo)

	call := seedReviewCall(t, repo, "rec-1", true)
	contact, err := repo.Contact().Create(ctx, &model.Contact{Name: "Jane Doe", Email: "jane@acme.com"})
	gt.NoError(t, err).Required()

	linked, err := uc.LinkContact(ctx, call.ID, contact.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, linked.ContactID).Equal(contact.ID)
	gt.Value(t, linked.MatchConfidence).Equal(types.MatchConfidenceManual)
	gt.Bool(t, linked.AutoMatched).False()
	gt.Bool(t, linked.NeedsReview).False()

	detail, err := uc.GetCall(ctx, call.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, detail.Contact).NotNil()
	gt.Value(t, detail.Contact.ID).Equal(contact.ID)
	gt.Array(t, detail.Participants).Length(1)
	gt.Value(t, detail.Participants[0].Source).Equal(types.ParticipantSourceManual)

	t.Run("linking again keeps a single participant", func(t *testing.T) {
		_, err := uc.LinkContact(ctx, call.ID, contact.ID)
		gt.NoError(t, err).Required()
		participants, err := repo.Participant().ListByCall(ctx, call.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, participants).Length(1)
	})

	t.Run("unknown call", func(t *testing.T) {
		_, err := uc.LinkContact(ctx, model.NewCallID(), contact.ID)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrCallNotFound)).True()
	})

	t.Run("unknown contact", func(t *testing.T) {
		_, err := uc.LinkContact(ctx, call.ID, model.NewContactID())
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrContactNotFound)).True()
	})
}

func TestReviewUseCase_ListCalls(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.NewReviewUseCase(repo)

	flagged := seedReviewCall(t, repo, "rec-1", true)
	seedReviewCall(t, repo, "rec-2", false)

	calls, err := uc.ListCalls(ctx, interfaces.WithNeedsReview())
	gt.NoError(t, err).Required()
	gt.Array(t, calls).Length(1)
	gt.Value(t, calls[0].ID).Equal(flagged.ID)

	calls, err = uc.ListCalls(ctx, interfaces.WithUnmatched())
	gt.NoError(t, err).Required()
	gt.Array(t, calls).Length(2)

	calls, err = uc.ListCalls(ctx, interfaces.WithLimit(1))
	gt.NoError(t, err).Required()
	gt.Array(t, calls).Length(1)
}

func TestReviewUseCase_SetNeedsReview(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.NewReviewUseCase(repo)
	call := seedReviewCall(t, repo, "rec-1", true)

	resolved, err := uc.SetNeedsReview(ctx, call.ID, false)
	gt.NoError(t, err).Required()
	gt.Bool(t, resolved.NeedsReview).False()

	stored, err := repo.Call().Get(ctx, call.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, stored.NeedsReview).False()
	gt.Value(t, stored.ContactID).Equal(model.ContactID(""))

	_, err = uc.SetNeedsReview(ctx, model.NewCallID(), true)
	gt.Bool(t, errors.Is(err, usecase.ErrCallNotFound)).True()
}

func TestReviewUseCase_ActionItems(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.NewReviewUseCase(repo)
	call := seedReviewCall(t, repo, "rec-1", false)

	item, err := repo.ActionItem().Create(ctx, &model.ActionItem{CallID: call.ID, Description: "Send proposal"})
	gt.NoError(t, err).Required()
	_, err = repo.ActionItem().Create(ctx, &model.ActionItem{CallID: call.ID, Description: "Share deck"})
	gt.NoError(t, err).Required()

	items, err := uc.ListActionItems(ctx, call.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, items).Length(2)

	open, err := uc.ListOpenActionItems(ctx, 0)
	gt.NoError(t, err).Required()
	gt.Array(t, open).Length(2)

	done, err := uc.SetActionItemCompleted(ctx, item.ID, true)
	gt.NoError(t, err).Required()
	gt.Bool(t, done.Completed).True()
	gt.Value(t, done.CompletedAt).NotNil()

	open, err = uc.ListOpenActionItems(ctx, 10)
	gt.NoError(t, err).Required()
	gt.Array(t, open).Length(1)

	reopened, err := uc.SetActionItemCompleted(ctx, item.ID, false)
	gt.NoError(t, err).Required()
	gt.Bool(t, reopened.Completed).False()
	gt.Value(t, reopened.CompletedAt).Nil()

	_, err = uc.SetActionItemCompleted(ctx, model.NewActionItemID(), true)
	gt.Bool(t, errors.Is(err, usecase.ErrActionItemNotFound)).True()

	_, err = uc.ListActionItems(ctx, model.NewCallID())
	gt.Bool(t, errors.Is(err, usecase.ErrCallNotFound)).True()
}

func TestReviewUseCase_ListSyncLogs(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithSource(&mockSource{}))

	for range 3 {
		_, err := uc.Sync.Sync(ctx, usecase.SyncInput{SyncType: types.SyncTypeManual})
		gt.NoError(t, err).Required()
	}

	logs, err := uc.Review.ListSyncLogs(ctx, 2)
	gt.NoError(t, err).Required()
	gt.Array(t, logs).Length(2)
	gt.Bool(t, !logs[0].StartedAt.Before(logs[1].StartedAt)).True()
}
