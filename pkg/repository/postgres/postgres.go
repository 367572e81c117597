package postgres

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

// Postgres stores everything in a PostgreSQL database through a pgx pool
type Postgres struct {
	pool        *pgxpool.Pool
	schema      string
	call        *callRepository
	contact     *contactRepository
	participant *participantRepository
	actionItem  *actionItemRepository
	syncLog     *syncLogRepository
}

var _ interfaces.Repository = &Postgres{}

type Option func(*pgxpool.Config)

// WithMaxConns caps the pool size
func WithMaxConns(n int32) Option {
	return func(cfg *pgxpool.Config) {
		cfg.MaxConns = n
	}
}

// WithConnectTimeout bounds the time spent establishing one connection
func WithConnectTimeout(d time.Duration) Option {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.ConnectTimeout = d
	}
}

// WithSchema places every table in schema. Migrate creates the schema when missing.
func WithSchema(schema string) Option {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}
}

// New connects to dsn and verifies the connection
func New(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse postgres DSN")
	}
	cfg.MaxConnIdleTime = 30 * time.Minute
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres", goerr.V("host", cfg.ConnConfig.Host))
	}

	return &Postgres{
		pool:        pool,
		schema:      cfg.ConnConfig.RuntimeParams["search_path"],
		call:        &callRepository{pool: pool},
		contact:     &contactRepository{pool: pool},
		participant: &participantRepository{pool: pool},
		actionItem:  &actionItemRepository{pool: pool},
		syncLog:     &syncLogRepository{pool: pool},
	}, nil
}

// Migrate creates the tables and indexes when they are missing
func (p *Postgres) Migrate(ctx context.Context) error {
	if p.schema != "" {
		if _, err := p.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{p.schema}.Sanitize()); err != nil {
			return goerr.Wrap(err, "failed to create postgres schema", goerr.V("schema", p.schema))
		}
	}
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return goerr.Wrap(err, "failed to apply postgres schema")
	}
	return nil
}

// Pool exposes the underlying pool for metrics collection
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *Postgres) Call() interfaces.CallRepository {
	return p.call
}

func (p *Postgres) Contact() interfaces.ContactRepository {
	return p.contact
}

func (p *Postgres) Participant() interfaces.ParticipantRepository {
	return p.participant
}

func (p *Postgres) ActionItem() interfaces.ActionItemRepository {
	return p.actionItem
}

func (p *Postgres) SyncLog() interfaces.SyncLogRepository {
	return p.syncLog
}

// DropSchema removes the configured schema and everything in it
func (p *Postgres) DropSchema(ctx context.Context) error {
	if p.schema == "" {
		return goerr.New("no schema configured")
	}
	if _, err := p.pool.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{p.schema}.Sanitize()+" CASCADE"); err != nil {
		return goerr.Wrap(err, "failed to drop postgres schema", goerr.V("schema", p.schema))
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func textOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
