package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

type participantRepository struct {
	pool *pgxpool.Pool
}

func (r *participantRepository) Add(ctx context.Context, p *model.Participant) error {
	tag, err := r.pool.Exec(ctx, `INSERT INTO call_participants (call_id, contact_id, source, created_at)
		VALUES ($1, $2, $3, $4) ON CONFLICT (call_id, contact_id) DO NOTHING`,
		p.CallID, p.ContactID, string(p.Source), time.Now().UTC())
	if err != nil {
		return goerr.Wrap(err, "failed to add participant",
			goerr.V("call_id", p.CallID), goerr.V("contact_id", p.ContactID))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(interfaces.ErrDuplicate, "participant already linked",
			goerr.V("call_id", p.CallID), goerr.V("contact_id", p.ContactID))
	}
	return nil
}

func (r *participantRepository) list(ctx context.Context, where string, arg string) ([]*model.Participant, error) {
	rows, err := r.pool.Query(ctx, `SELECT call_id, contact_id, source, created_at FROM call_participants
		WHERE `+where+` = $1 ORDER BY created_at`, arg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query participants", goerr.V(where, arg))
	}
	defer rows.Close()

	out := make([]*model.Participant, 0)
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.CallID, &p.ContactID, &p.Source, &p.CreatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan participant")
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate participants")
	}
	return out, nil
}

func (r *participantRepository) ListByCall(ctx context.Context, callID model.CallID) ([]*model.Participant, error) {
	return r.list(ctx, "call_id", string(callID))
}

func (r *participantRepository) ListByContact(ctx context.Context, contactID model.ContactID) ([]*model.Participant, error) {
	return r.list(ctx, "contact_id", string(contactID))
}
