package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Firestore struct {
	client      *firestore.Client
	call        *callRepository
	contact     *contactRepository
	participant *participantRepository
	actionItem  *actionItemRepository
	syncLog     *syncLogRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every collection name, used to isolate test runs
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.call.collectionPrefix = prefix
		f.contact.collectionPrefix = prefix
		f.participant.collectionPrefix = prefix
		f.actionItem.collectionPrefix = prefix
		f.syncLog.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:      client,
		call:        &callRepository{client: client},
		contact:     &contactRepository{client: client},
		participant: &participantRepository{client: client},
		actionItem:  &actionItemRepository{client: client},
		syncLog:     &syncLogRepository{client: client},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Call() interfaces.CallRepository {
	return f.call
}

func (f *Firestore) Contact() interfaces.ContactRepository {
	return f.contact
}

func (f *Firestore) Participant() interfaces.ParticipantRepository {
	return f.participant
}

func (f *Firestore) ActionItem() interfaces.ActionItemRepository {
	return f.actionItem
}

func (f *Firestore) SyncLog() interfaces.SyncLogRepository {
	return f.syncLog
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func collectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

// keyDocID turns an arbitrary unique key into a valid document ID
func keyDocID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}
