package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

type contactRepository struct {
	mu       sync.RWMutex
	contacts map[model.ContactID]*model.Contact
	byEmail  map[string]model.ContactID
}

func newContactRepository() *contactRepository {
	return &contactRepository{
		contacts: make(map[model.ContactID]*model.Contact),
		byEmail:  make(map[string]model.ContactID),
	}
}

func copyContact(c *model.Contact) *model.Contact {
	copied := *c
	return &copied
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := model.NormalizeEmail(contact.Email)
	if email != "" {
		if _, exists := r.byEmail[email]; exists {
			return nil, goerr.Wrap(interfaces.ErrDuplicate, "contact email already exists", goerr.V("email", email))
		}
	}

	now := time.Now().UTC()
	created := copyContact(contact)
	if created.ID == "" {
		created.ID = model.NewContactID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.contacts[created.ID] = created
	if email != "" {
		r.byEmail[email] = created.ID
	}
	return copyContact(created), nil
}

func (r *contactRepository) Get(ctx context.Context, id model.ContactID) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.contacts[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("id", id))
	}
	return copyContact(c), nil
}

func (r *contactRepository) Update(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.contacts[contact.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("id", contact.ID))
	}

	oldEmail := model.NormalizeEmail(existing.Email)
	newEmail := model.NormalizeEmail(contact.Email)
	if newEmail != "" && newEmail != oldEmail {
		if owner, taken := r.byEmail[newEmail]; taken && owner != contact.ID {
			return nil, goerr.Wrap(interfaces.ErrDuplicate, "contact email already exists", goerr.V("email", newEmail))
		}
	}

	updated := copyContact(contact)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if oldEmail != "" && oldEmail != newEmail {
		delete(r.byEmail, oldEmail)
	}
	if newEmail != "" {
		r.byEmail[newEmail] = updated.ID
	}
	r.contacts[updated.ID] = updated
	return copyContact(updated), nil
}

func (r *contactRepository) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[model.NormalizeEmail(email)]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("email", email))
	}
	return copyContact(r.contacts[id]), nil
}

func (r *contactRepository) filter(match func(c *model.Contact) bool) []*model.Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Contact, 0)
	for _, c := range r.contacts {
		if match(c) {
			out = append(out, copyContact(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *contactRepository) FindByName(ctx context.Context, name string) ([]*model.Contact, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return []*model.Contact{}, nil
	}
	return r.filter(func(c *model.Contact) bool {
		return strings.ToLower(strings.TrimSpace(c.Name)) == key
	}), nil
}

func (r *contactRepository) SearchByName(ctx context.Context, fragment string) ([]*model.Contact, error) {
	key := strings.ToLower(strings.TrimSpace(fragment))
	if key == "" {
		return []*model.Contact{}, nil
	}
	return r.filter(func(c *model.Contact) bool {
		return strings.Contains(strings.ToLower(c.Name), key)
	}), nil
}

func (r *contactRepository) SearchByCompany(ctx context.Context, fragment string) ([]*model.Contact, error) {
	key := strings.ToLower(strings.TrimSpace(fragment))
	if key == "" {
		return []*model.Contact{}, nil
	}
	return r.filter(func(c *model.Contact) bool {
		return strings.Contains(strings.ToLower(c.Company), key)
	}), nil
}

func (r *contactRepository) List(ctx context.Context) ([]*model.Contact, error) {
	return r.filter(func(*model.Contact) bool { return true }), nil
}
