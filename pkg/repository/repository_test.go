package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/repository/firestore"
	"github.com/secmon-lab/meetlink/pkg/repository/memory"
	"github.com/secmon-lab/meetlink/pkg/repository/postgres"
)

type repoFactory func(t *testing.T) interfaces.Repository

func newMemoryRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func newPostgresRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	schema := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := postgres.New(ctx, dsn, postgres.WithSchema(schema), postgres.WithMaxConns(4))
	if err != nil {
		t.Fatalf("failed to create postgres repository: %v", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate postgres schema: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.DropSchema(context.Background()); err != nil {
			t.Errorf("failed to drop schema: %v", err)
		}
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close postgres repository: %v", err)
		}
	})
	return repo
}

func eachBackend(t *testing.T, run func(t *testing.T, newRepo repoFactory)) {
	t.Run("Memory", func(t *testing.T) { run(t, newMemoryRepository) })
	t.Run("Firestore", func(t *testing.T) { run(t, newFirestoreRepository) })
	t.Run("Postgres", func(t *testing.T) { run(t, newPostgresRepository) })
}

func uniqueRecordingID() string {
	return fmt.Sprintf("rec-%d", time.Now().UnixNano())
}

func createContact(t *testing.T, repo interfaces.Repository, name, company, email string) *model.Contact {
	t.Helper()
	created, err := repo.Contact().Create(context.Background(), &model.Contact{
		Name:    name,
		Company: company,
		Email:   email,
		Status:  types.PipelineStatusNew,
	})
	gt.NoError(t, err).Required()
	return created
}

func createCall(t *testing.T, repo interfaces.Repository, title string, callDate time.Time) *model.Call {
	t.Helper()
	created, err := repo.Call().Create(context.Background(), &model.Call{
		RecordingID: uniqueRecordingID(),
		Title:       title,
		CallDate:    callDate,
	})
	gt.NoError(t, err).Required()
	return created
}

func isNotFound(err error) bool {
	return errors.Is(err, interfaces.ErrNotFound)
}
