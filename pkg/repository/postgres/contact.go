package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

const contactColumns = `id, name, company, email, status, notes, auto_created, created_at, updated_at`

type contactRepository struct {
	pool *pgxpool.Pool
}

func scanContact(row pgx.Row) (*model.Contact, error) {
	var c model.Contact
	if err := row.Scan(&c.ID, &c.Name, &c.Company, &c.Email, &c.Status, &c.Notes, &c.AutoCreated, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	now := time.Now().UTC()
	created := *contact
	if created.ID == "" {
		created.ID = model.NewContactID()
	}
	created.Email = strings.TrimSpace(created.Email)

	row := r.pool.QueryRow(ctx, `INSERT INTO contacts (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+contactColumns,
		created.ID, created.Name, created.Company, created.Email, string(created.Status),
		created.Notes, created.AutoCreated, now,
	)
	result, err := scanContact(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, goerr.Wrap(interfaces.ErrDuplicate, "contact email already exists", goerr.V("email", contact.Email))
		}
		return nil, goerr.Wrap(err, "failed to create contact", goerr.V("name", contact.Name))
	}
	return result, nil
}

func (r *contactRepository) Get(ctx context.Context, id model.ContactID) (*model.Contact, error) {
	c, err := scanContact(r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get contact", goerr.V("id", id))
	}
	return c, nil
}

func (r *contactRepository) Update(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	row := r.pool.QueryRow(ctx, `UPDATE contacts SET
			name = $2, company = $3, email = $4, status = $5, notes = $6, auto_created = $7, updated_at = $8
		WHERE id = $1
		RETURNING `+contactColumns,
		contact.ID, contact.Name, contact.Company, strings.TrimSpace(contact.Email), string(contact.Status),
		contact.Notes, contact.AutoCreated, time.Now().UTC(),
	)
	updated, err := scanContact(row)
	if err != nil {
		if isNoRows(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("id", contact.ID))
		}
		if isUniqueViolation(err) {
			return nil, goerr.Wrap(interfaces.ErrDuplicate, "contact email already exists", goerr.V("email", contact.Email))
		}
		return nil, goerr.Wrap(err, "failed to update contact", goerr.V("id", contact.ID))
	}
	return updated, nil
}

func (r *contactRepository) GetByEmail(ctx context.Context, email string) (*model.Contact, error) {
	key := model.NormalizeEmail(email)
	if key == "" {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("email", email))
	}

	c, err := scanContact(r.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE email <> '' AND lower(email) = $1`, key))
	if err != nil {
		if isNoRows(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "contact not found", goerr.V("email", email))
		}
		return nil, goerr.Wrap(err, "failed to get contact by email", goerr.V("email", email))
	}
	return c, nil
}

func (r *contactRepository) query(ctx context.Context, sql string, args ...any) ([]*model.Contact, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query contacts")
	}
	defer rows.Close()

	contacts := make([]*model.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan contact")
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate contacts")
	}
	return contacts, nil
}

// escapeLike makes fragment a literal ILIKE pattern
func escapeLike(fragment string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(fragment)
}

func (r *contactRepository) FindByName(ctx context.Context, name string) ([]*model.Contact, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return []*model.Contact{}, nil
	}
	return r.query(ctx, `SELECT `+contactColumns+` FROM contacts WHERE lower(btrim(name)) = $1 ORDER BY created_at`, key)
}

func (r *contactRepository) SearchByName(ctx context.Context, fragment string) ([]*model.Contact, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return []*model.Contact{}, nil
	}
	return r.query(ctx, `SELECT `+contactColumns+` FROM contacts WHERE name ILIKE $1 ORDER BY created_at`,
		"%"+escapeLike(fragment)+"%")
}

func (r *contactRepository) SearchByCompany(ctx context.Context, fragment string) ([]*model.Contact, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return []*model.Contact{}, nil
	}
	return r.query(ctx, `SELECT `+contactColumns+` FROM contacts WHERE company ILIKE $1 ORDER BY created_at`,
		"%"+escapeLike(fragment)+"%")
}

func (r *contactRepository) List(ctx context.Context) ([]*model.Contact, error) {
	return r.query(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY created_at`)
}
