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

const syncLogColumns = `id, sync_type, status, meetings_processed, meetings_new, contacts_created,
	needs_review_count, errors, started_at, completed_at`

type syncLogRepository struct {
	pool *pgxpool.Pool
}

func scanSyncLog(row pgx.Row) (*model.SyncLog, error) {
	var log model.SyncLog
	if err := row.Scan(&log.ID, &log.SyncType, &log.Status, &log.Stats.MeetingsProcessed,
		&log.Stats.MeetingsNew, &log.Stats.ContactsCreated, &log.Stats.NeedsReviewCount,
		&log.Stats.Errors, &log.StartedAt, &log.CompletedAt); err != nil {
		return nil, err
	}
	return &log, nil
}

func errorList(errs []string) []string {
	if errs == nil {
		return []string{}
	}
	return errs
}

func (r *syncLogRepository) Create(ctx context.Context, log *model.SyncLog) (*model.SyncLog, error) {
	created := *log
	if created.ID == "" {
		created.ID = model.NewSyncLogID()
	}
	if created.StartedAt.IsZero() {
		created.StartedAt = time.Now().UTC()
	}

	row := r.pool.QueryRow(ctx, `INSERT INTO sync_logs (`+syncLogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+syncLogColumns,
		created.ID, string(created.SyncType), string(created.Status), created.Stats.MeetingsProcessed,
		created.Stats.MeetingsNew, created.Stats.ContactsCreated, created.Stats.NeedsReviewCount,
		errorList(created.Stats.Errors), created.StartedAt, created.CompletedAt,
	)
	result, err := scanSyncLog(row)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create sync log")
	}
	return result, nil
}

func (r *syncLogRepository) Update(ctx context.Context, log *model.SyncLog) (*model.SyncLog, error) {
	row := r.pool.QueryRow(ctx, `UPDATE sync_logs SET
			sync_type = $2, status = $3, meetings_processed = $4, meetings_new = $5,
			contacts_created = $6, needs_review_count = $7, errors = $8, completed_at = $9
		WHERE id = $1
		RETURNING `+syncLogColumns,
		log.ID, string(log.SyncType), string(log.Status), log.Stats.MeetingsProcessed,
		log.Stats.MeetingsNew, log.Stats.ContactsCreated, log.Stats.NeedsReviewCount,
		errorList(log.Stats.Errors), log.CompletedAt,
	)
	updated, err := scanSyncLog(row)
	if err != nil {
		if isNoRows(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "sync log not found", goerr.V("id", log.ID))
		}
		return nil, goerr.Wrap(err, "failed to update sync log", goerr.V("id", log.ID))
	}
	return updated, nil
}

func (r *syncLogRepository) List(ctx context.Context, limit int) ([]*model.SyncLog, error) {
	sql := `SELECT ` + syncLogColumns + ` FROM sync_logs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		sql += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query sync logs")
	}
	defer rows.Close()

	out := make([]*model.SyncLog, 0)
	for rows.Next() {
		log, err := scanSyncLog(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan sync log")
		}
		out = append(out, log)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate sync logs")
	}
	return out, nil
}
