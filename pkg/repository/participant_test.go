package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
)

func runParticipantRepositoryTest(t *testing.T, newRepo repoFactory) {
	t.Helper()

	t.Run("Add and list both directions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		jane := createContact(t, repo, "Jane Doe", "Acme", "jane@acme.com")
		bob := createContact(t, repo, "Bob Stone", "Acme", "bob@acme.com")
		call := createCall(t, repo, "Acme sync", time.Now())

		gt.NoError(t, repo.Participant().Add(ctx, &model.Participant{
			CallID: call.ID, ContactID: jane.ID, Source: types.ParticipantSourceCalendarInvitee,
		})).Required()
		gt.NoError(t, repo.Participant().Add(ctx, &model.Participant{
			CallID: call.ID, ContactID: bob.ID, Source: types.ParticipantSourceTranscript,
		})).Required()

		byCall, err := repo.Participant().ListByCall(ctx, call.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, byCall).Length(2)

		byContact, err := repo.Participant().ListByContact(ctx, bob.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, byContact).Length(1).Required()
		gt.Value(t, byContact[0].CallID).Equal(call.ID)
		gt.Value(t, byContact[0].Source).Equal(types.ParticipantSourceTranscript)
	})

	t.Run("Add rejects duplicate link", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		jane := createContact(t, repo, "Jane Doe", "Acme", "jane@acme.com")
		call := createCall(t, repo, "Acme sync", time.Now())
		p := &model.Participant{CallID: call.ID, ContactID: jane.ID, Source: types.ParticipantSourceAttendee}

		gt.NoError(t, repo.Participant().Add(ctx, p)).Required()
		err := repo.Participant().Add(ctx, p)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, interfaces.ErrDuplicate)).True()

		byCall, err := repo.Participant().ListByCall(ctx, call.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, byCall).Length(1)
	})

	t.Run("List of unknown call is empty", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.Participant().ListByCall(context.Background(), "missing")
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(0)
	})
}

func TestParticipantRepository(t *testing.T) {
	eachBackend(t, runParticipantRepositoryTest)
}
