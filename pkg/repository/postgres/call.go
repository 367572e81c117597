package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
)

const callColumns = `id, recording_id, title, summary, call_date, duration_minutes, organizer_email,
	contact_id, auto_matched, match_confidence, needs_review, extraction, raw_payload, raw_archive_url,
	created_at, updated_at`

type callRepository struct {
	pool *pgxpool.Pool
}

func scanCall(row pgx.Row) (*model.Call, error) {
	var (
		call       model.Call
		contactID  *string
		confidence string
		extraction []byte
	)
	if err := row.Scan(
		&call.ID, &call.RecordingID, &call.Title, &call.Summary, &call.CallDate, &call.DurationMinutes,
		&call.OrganizerEmail, &contactID, &call.AutoMatched, &confidence, &call.NeedsReview,
		&extraction, &call.RawPayload, &call.RawArchiveURL, &call.CreatedAt, &call.UpdatedAt,
	); err != nil {
		return nil, err
	}

	call.ContactID = model.ContactID(textOrEmpty(contactID))
	call.MatchConfidence = types.MatchConfidence(confidence)
	if len(extraction) > 0 {
		var ext model.Extraction
		if err := json.Unmarshal(extraction, &ext); err != nil {
			return nil, goerr.Wrap(err, "failed to decode extraction", goerr.V("id", call.ID))
		}
		call.Extraction = &ext
	}
	return &call, nil
}

func encodeExtraction(ext *model.Extraction) ([]byte, error) {
	if ext == nil {
		return nil, nil
	}
	data, err := json.Marshal(ext)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode extraction")
	}
	return data, nil
}

func (r *callRepository) Create(ctx context.Context, call *model.Call) (*model.Call, error) {
	now := time.Now().UTC()
	created := *call
	if created.ID == "" {
		created.ID = model.NewCallID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	extraction, err := encodeExtraction(created.Extraction)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `INSERT INTO calls (`+callColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+callColumns,
		created.ID, created.RecordingID, created.Title, created.Summary, created.CallDate,
		created.DurationMinutes, created.OrganizerEmail, nullableText(string(created.ContactID)),
		created.AutoMatched, string(created.MatchConfidence), created.NeedsReview, extraction,
		created.RawPayload, created.RawArchiveURL, created.CreatedAt, created.UpdatedAt,
	)
	result, err := scanCall(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, goerr.Wrap(interfaces.ErrDuplicate, "call already ingested", goerr.V("recording_id", call.RecordingID))
		}
		return nil, goerr.Wrap(err, "failed to create call", goerr.V("recording_id", call.RecordingID))
	}
	return result, nil
}

func (r *callRepository) Get(ctx context.Context, id model.CallID) (*model.Call, error) {
	call, err := scanCall(r.pool.QueryRow(ctx, `SELECT `+callColumns+` FROM calls WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "call not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get call", goerr.V("id", id))
	}
	return call, nil
}

func (r *callRepository) GetByRecordingID(ctx context.Context, recordingID string) (*model.Call, error) {
	call, err := scanCall(r.pool.QueryRow(ctx, `SELECT `+callColumns+` FROM calls WHERE recording_id = $1`, recordingID))
	if err != nil {
		if isNoRows(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "call not found", goerr.V("recording_id", recordingID))
		}
		return nil, goerr.Wrap(err, "failed to get call", goerr.V("recording_id", recordingID))
	}
	return call, nil
}

func (r *callRepository) Update(ctx context.Context, call *model.Call) (*model.Call, error) {
	extraction, err := encodeExtraction(call.Extraction)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `UPDATE calls SET
			title = $2, summary = $3, call_date = $4, duration_minutes = $5, organizer_email = $6,
			contact_id = $7, auto_matched = $8, match_confidence = $9, needs_review = $10,
			extraction = $11, raw_payload = $12, raw_archive_url = $13, updated_at = $14
		WHERE id = $1
		RETURNING `+callColumns,
		call.ID, call.Title, call.Summary, call.CallDate, call.DurationMinutes, call.OrganizerEmail,
		nullableText(string(call.ContactID)), call.AutoMatched, string(call.MatchConfidence),
		call.NeedsReview, extraction, call.RawPayload, call.RawArchiveURL, time.Now().UTC(),
	)
	updated, err := scanCall(row)
	if err != nil {
		if isNoRows(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "call not found", goerr.V("id", call.ID))
		}
		return nil, goerr.Wrap(err, "failed to update call", goerr.V("id", call.ID))
	}
	return updated, nil
}

func (r *callRepository) List(ctx context.Context, opts ...interfaces.ListCallOption) ([]*model.Call, error) {
	cfg := interfaces.BuildListCallConfig(opts...)

	var (
		conds []string
		args  []any
	)
	if cfg.ContactID() != "" {
		args = append(args, string(cfg.ContactID()))
		conds = append(conds, fmt.Sprintf("contact_id = $%d", len(args)))
	}
	if cfg.Unmatched() {
		conds = append(conds, "contact_id IS NULL")
	}
	if cfg.NeedsReview() {
		conds = append(conds, "needs_review")
	}

	query := `SELECT ` + callColumns + ` FROM calls`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY call_date DESC, created_at DESC"
	if cfg.Limit() > 0 {
		args = append(args, cfg.Limit())
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if cfg.Offset() > 0 {
		args = append(args, cfg.Offset())
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list calls")
	}
	defer rows.Close()

	calls := make([]*model.Call, 0)
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan call")
		}
		calls = append(calls, call)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate calls")
	}
	return calls, nil
}
