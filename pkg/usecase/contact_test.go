package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/repository/memory"
	"github.com/secmon-lab/meetlink/pkg/usecase"
)

func TestContactUseCase_ResolveOrCreate(t *testing.T) {
	t.Run("existing email wins over name", func(t *testing.T) {
		ctx := context.Background()
		repo := memory.New()
		existing, err := repo.Contact().Create(ctx, &model.Contact{Name: "J. Doe", Email: "jane@acme.com"})
		gt.NoError(t, err).Required()
		_, err = repo.Contact().Create(ctx, &model.Contact{Name: "Jane Doe"})
		gt.NoError(t, err).Required()

		uc := usecase.NewContactUseCase(repo)
		got, created, err := uc.ResolveOrCreate(ctx, usecase.ContactCandidate{Name: "Jane Doe", Email: " JANE@acme.com "}, "test")
		gt.NoError(t, err).Required()
		gt.Bool(t, created).False()
		gt.Value(t, got.ID).Equal(existing.ID)
	})

	t.Run("exact name match", func(t *testing.T) {
		ctx := context.Background()
		repo := memory.New()
		existing, err := repo.Contact().Create(ctx, &model.Contact{Name: "Jane Doe"})
		gt.NoError(t, err).Required()

		uc := usecase.NewContactUseCase(repo)
		got, created, err := uc.ResolveOrCreate(ctx, usecase.ContactCandidate{Name: "  jane   doe "}, "test")
		gt.NoError(t, err).Required()
		gt.Bool(t, created).False()
		gt.Value(t, got.ID).Equal(existing.ID)
	})

	t.Run("creates with derived name", func(t *testing.T) {
		ctx := context.Background()
		repo := memory.New()
		uc := usecase.NewContactUseCase(repo)

		got, created, err := uc.ResolveOrCreate(ctx, usecase.ContactCandidate{Email: "john.smith@example.com", Company: " Example "}, "Auto-created from Fathom call.")
		gt.NoError(t, err).Required()
		gt.Bool(t, created).True()
		gt.Value(t, got.Name).Equal("John Smith")
		gt.Value(t, got.Email).Equal("john.smith@example.com")
		gt.Value(t, got.Company).Equal("Example")
		gt.Value(t, got.Status).Equal(types.PipelineStatusNew)
		gt.Value(t, got.Notes).Equal("Auto-created from Fathom call.")
		gt.Bool(t, got.AutoCreated).True()
	})

	t.Run("keeps requested status", func(t *testing.T) {
		ctx := context.Background()
		uc := usecase.NewContactUseCase(memory.New())

		got, created, err := uc.ResolveOrCreate(ctx, usecase.ContactCandidate{Name: "Ken Tanaka", Status: types.PipelineStatusClient}, "test")
		gt.NoError(t, err).Required()
		gt.Bool(t, created).True()
		gt.Value(t, got.Status).Equal(types.PipelineStatusClient)
	})

	t.Run("empty candidate", func(t *testing.T) {
		uc := usecase.NewContactUseCase(memory.New())
		_, _, err := uc.ResolveOrCreate(context.Background(), usecase.ContactCandidate{Name: "  "}, "test")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrEmptyCandidate)).True()
	})
}
