package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type contactDocument struct {
	ID          string    `firestore:"id"`
	Name        string    `firestore:"name"`
	NameLower   string    `firestore:"name_lower"`
	Company     string    `firestore:"company"`
	Email       string    `firestore:"email"`
	EmailLower  string    `firestore:"email_lower"`
	Status      string    `firestore:"status"`
	Notes       string    `firestore:"notes"`
	AutoCreated bool      `firestore:"auto_created"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

type emailIndexDocument struct {
	Email     string `firestore:"email"`
	ContactID string `firestore:"contact_id"`
}

type contactRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *contactRepository) contactsCollection() string {
	return collectionName(r.collectionPrefix, "contacts")
}

func (r *contactRepository) emailsCollection() string {
	return collectionName(r.collectionPrefix, "contact_emails")
}

func contactToDocument(c *model.Contact) *contactDocument {
	return &contactDocument{
		ID:          string(c.ID),
		Name:        c.Name,
		NameLower:   strings.ToLower(strings.TrimSpace(c.Name)),
		Company:     c.Company,
		Email:       c.Email,
		EmailLower:  model.NormalizeEmail(c.Email),
		Status:      string(c.Status),
		Notes:       c.Notes,
		AutoCreated: c.AutoCreated,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func contactToModel(doc *contactDocument) *model.Contact {
	return &model.Contact{
		ID:          model.ContactID(doc.ID),
		Name:        doc.Name,
		Company:     doc.Company,
		Email:       doc.Email,
		Status:      types.PipelineStatus(doc.Status),
		Notes:       doc.Notes,
		AutoCreated: doc.AutoCreated,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

func (r *contactRepository) emailRef(email string) *firestore.DocumentRef {
	return r.client.Collection(r.emailsCollection()).Doc(keyDocID(email))
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	now := time.Now().UTC()
	created := *contact
	if created.ID == "" {
		created.ID = model.NewContactID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	doc := contactToDocument(&created)
	ref := r.client.Collection(r.contactsCollection()).Doc(doc.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if doc.EmailLower != "" {
			if err := tx.Create(r.emailRef(doc.EmailLower), &emailIndexDocument{Email: doc.EmailLower, ContactID: doc.ID}); err != nil {
				return err
			}
		}
		return tx.Create(ref, doc)
	})
	if err != nil {
		if isAlreadyExists(err) {
			return nil, goerr.Wrap(interfaces.ErrDuplicate, "contact email already exists", goerr.V("email", doc.EmailLower))
		}
		return nil, goerr.Wrap(err, "failed to create contact", goerr.V("name", contact.Name))
	}

	return contactToModel(doc), nil
}

func (r *contactRepository) Get(ctx context.Context, id model.ContactID) (*model.Contact, error) {
	snap, err := r.client.Collection(r.contactsCollection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get contact", goerr.V("id", id))
	}

	var doc contactDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal contact", goerr.V("id", id))
	}
	return contactToModel(&doc), nil
}

func (r *contactRepository) Update(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	ref := r.client.Collection(r.contactsCollection()).Doc(string(contact.ID))

	var doc *contactDocument
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var existing contactDocument
		if err := snap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to unmarshal contact")
		}

		doc = contactToDocument(contact)
		doc.CreatedAt = existing.CreatedAt
		doc.UpdatedAt = time.Now().UTC()

		if doc.EmailLower != existing.EmailLower {
			if doc.EmailLower != "" {
				if err := tx.Create(r.emailRef(doc.EmailLower), &emailIndexDocument{Email: doc.EmailLower, ContactID: doc.ID}); err != nil {
					return err
				}
			}
			if existing.EmailLower != "" {
				if err := tx.Delete(r.emailRef(existing.EmailLower)); err != nil {
					return err
				}
			}
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("id", contact.ID))
		}
		if isAlreadyExists(err) {
			return nil, goerr.Wrap(interfaces.ErrDuplicate, "contact email already exists", goerr.V("email", contact.Email))
		}
		return nil, goerr.Wrap(err, "failed to update contact", goerr.V("id", contact.ID))
	}

	return contactToModel(doc), nil
}

func (r *contactRepository) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	key := model.NormalizeEmail(email)
	if key == "" {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("email", email))
	}

	snap, err := r.emailRef(key).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("email", email))
		}
		return nil, goerr.Wrap(err, "failed to get email index", goerr.V("email", email))
	}

	var idx emailIndexDocument
	if err := snap.DataTo(&idx); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal email index", goerr.V("email", email))
	}
	return r.Get(ctx, model.ContactID(idx.ContactID))
}

func (r *contactRepository) collect(iter *firestore.DocumentIterator, match func(*contactDocument) bool) ([]*model.Contact, error) {
	defer iter.Stop()

	contacts := make([]*model.Contact, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate contacts")
		}

		var doc contactDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal contact")
		}
		if match == nil || match(&doc) {
			contacts = append(contacts, contactToModel(&doc))
		}
	}

	sort.Slice(contacts, func(i, j int) bool {
		return contacts[i].CreatedAt.Before(contacts[j].CreatedAt)
	})
	return contacts, nil
}

func (r *contactRepository) FindByName(ctx context.Context, name string) ([]*model.Contact, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return []*model.Contact{}, nil
	}
	iter := r.client.Collection(r.contactsCollection()).Where("name_lower", "==", key).Documents(ctx)
	return r.collect(iter, nil)
}

// SearchByName scans every contact. Firestore has no substring operator.
func (r *contactRepository) SearchByName(ctx context.Context, fragment string) ([]*model.Contact, error) {
	key := strings.ToLower(strings.TrimSpace(fragment))
	if key == "" {
		return []*model.Contact{}, nil
	}
	iter := r.client.Collection(r.contactsCollection()).Documents(ctx)
	return r.collect(iter, func(doc *contactDocument) bool {
		return strings.Contains(doc.NameLower, key)
	})
}

func (r *contactRepository) SearchByCompany(ctx context.Context, fragment string) ([]*model.Contact, error) {
	key := strings.ToLower(strings.TrimSpace(fragment))
	if key == "" {
		return []*model.Contact{}, nil
	}
	iter := r.client.Collection(r.contactsCollection()).Documents(ctx)
	return r.collect(iter, func(doc *contactDocument) bool {
		return strings.Contains(strings.ToLower(doc.Company), key)
	})
}

func (r *contactRepository) List(ctx context.Context) ([]*model.Contact, error) {
	return r.collect(r.client.Collection(r.contactsCollection()).Documents(ctx), nil)
}
