package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/repriselab/prospect-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock pools satisfy
// it too, which keeps the Postgres store testable without a database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	siren          TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL,
	revenue        BIGINT,
	workforce      TEXT NOT NULL DEFAULT '',
	address        TEXT NOT NULL DEFAULT '',
	website        TEXT NOT NULL DEFAULT '',
	executive      TEXT NOT NULL DEFAULT '',
	executive_age  INT,
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	registry_url   TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'prospect',
	notes          TEXT NOT NULL DEFAULT '',
	cession_reason TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_siren ON leads(siren);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	if lead.SIREN != "" {
		var exists int
		err := s.pool.QueryRow(ctx,
			`SELECT 1 FROM leads WHERE siren = $1 LIMIT 1`, lead.SIREN,
		).Scan(&exists)
		switch {
		case err == nil:
			return nil, ErrDuplicateLead
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, eris.Wrap(err, "postgres: check lead exists")
		}
	}

	lead.ID = uuid.New().String()
	if lead.Status == "" {
		lead.Status = model.StatusProspect
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, siren, name, revenue, workforce, address, website,
			executive, executive_age, email, phone, registry_url,
			status, notes, cession_reason, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		lead.ID, lead.SIREN, lead.Name, lead.Revenue, lead.Workforce,
		lead.Address, lead.Website, lead.Executive, lead.ExecutiveAge,
		lead.Email, lead.Phone, lead.RegistryURL,
		lead.Status, lead.Notes, lead.CessionReason, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert lead")
	}
	return &lead, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, siren, name, revenue, workforce, address, website,
			executive, executive_age, email, phone, registry_url,
			status, notes, cession_reason, created_at, updated_at
		 FROM leads WHERE id = $1`, id,
	)
	return scanPgLead(row)
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, siren, name, revenue, workforce, address, website,
			executive, executive_age, email, phone, registry_url,
			status, notes, cession_reason, created_at, updated_at
		 FROM leads`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += ` OFFSET $` + strconv.Itoa(len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanPgLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}

func (s *PostgresStore) UpdateLead(ctx context.Context, lead model.Lead) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET name = $1, revenue = $2, workforce = $3, address = $4,
			website = $5, executive = $6, executive_age = $7, email = $8, phone = $9,
			registry_url = $10, status = $11, notes = $12, cession_reason = $13, updated_at = $14
		 WHERE id = $15`,
		lead.Name, lead.Revenue, lead.Workforce, lead.Address,
		lead.Website, lead.Executive, lead.ExecutiveAge, lead.Email,
		lead.Phone, lead.RegistryURL, lead.Status, lead.Notes, lead.CessionReason,
		time.Now().UTC(), lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrap(ErrLeadNotFound, lead.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrap(ErrLeadNotFound, id)
	}
	return nil
}

func scanPgLead(row pgx.Row) (*model.Lead, error) {
	var l model.Lead

	err := row.Scan(&l.ID, &l.SIREN, &l.Name, &l.Revenue, &l.Workforce,
		&l.Address, &l.Website, &l.Executive, &l.ExecutiveAge, &l.Email, &l.Phone,
		&l.RegistryURL, &l.Status, &l.Notes, &l.CessionReason,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan lead")
	}
	return &l, nil
}

