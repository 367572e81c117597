package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

const actionItemColumns = `id, call_id, description, assignee, completed, completed_at, created_at`

type actionItemRepository struct {
	pool *pgxpool.Pool
}

func scanActionItem(row pgx.Row) (*model.ActionItem, error) {
	var item model.ActionItem
	if err := row.Scan(&item.ID, &item.CallID, &item.Description, &item.Assignee, &item.Completed, &item.CompletedAt, &item.CreatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *actionItemRepository) Create(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error) {
	created := *item
	if created.ID == "" {
		created.ID = model.NewActionItemID()
	}

	row := r.pool.QueryRow(ctx, `INSERT INTO action_items (`+actionItemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+actionItemColumns,
		created.ID, created.CallID, created.Description, created.Assignee, created.Completed,
		created.CompletedAt, time.Now().UTC(),
	)
	result, err := scanActionItem(row)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create action item", goerr.V("call_id", item.CallID))
	}
	return result, nil
}

func (r *actionItemRepository) Get(ctx context.Context, id model.ActionItemID) (*model.ActionItem, error) {
	item, err := scanActionItem(r.pool.QueryRow(ctx, `SELECT `+actionItemColumns+` FROM action_items WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "action item not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get action item", goerr.V("id", id))
	}
	return item, nil
}

func (r *actionItemRepository) Update(ctx context.Context, item *model.ActionItem) (*model.ActionItem, error) {
	row := r.pool.QueryRow(ctx, `UPDATE action_items SET
			description = $2, assignee = $3, completed = $4, completed_at = $5
		WHERE id = $1
		RETURNING `+actionItemColumns,
		item.ID, item.Description, item.Assignee, item.Completed, item.CompletedAt,
	)
	updated, err := scanActionItem(row)
	if err != nil {
		if isNoRows(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "action item not found", goerr.V("id", item.ID))
		}
		return nil, goerr.Wrap(err, "failed to update action item", goerr.V("id", item.ID))
	}
	return updated, nil
}

func (r *actionItemRepository) query(ctx context.Context, sql string, args ...any) ([]*model.ActionItem, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query action items")
	}
	defer rows.Close()

	out := make([]*model.ActionItem, 0)
	for rows.Next() {
		item, err := scanActionItem(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan action item")
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate action items")
	}
	return out, nil
}

func (r *actionItemRepository) ListByCall(ctx context.Context, callID model.CallID) ([]*model.ActionItem, error) {
	return r.query(ctx, `SELECT `+actionItemColumns+` FROM action_items WHERE call_id = $1 ORDER BY created_at, id`, callID)
}

func (r *actionItemRepository) ListOpen(ctx context.Context, limit int) ([]*model.ActionItem, error) {
	if limit > 0 {
		return r.query(ctx, `SELECT `+actionItemColumns+` FROM action_items WHERE NOT completed ORDER BY created_at DESC LIMIT $1`, limit)
	}
	return r.query(ctx, `SELECT `+actionItemColumns+` FROM action_items WHERE NOT completed ORDER BY created_at DESC`)
}
