package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/repriselab/prospect-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	siren          TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL,
	revenue        INTEGER,
	workforce      TEXT NOT NULL DEFAULT '',
	address        TEXT NOT NULL DEFAULT '',
	website        TEXT NOT NULL DEFAULT '',
	executive      TEXT NOT NULL DEFAULT '',
	executive_age  INTEGER,
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	registry_url   TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'prospect',
	notes          TEXT NOT NULL DEFAULT '',
	cession_reason TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_siren ON leads(siren);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error) {
	if lead.SIREN != "" {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM leads WHERE siren = ? LIMIT 1`, lead.SIREN,
		).Scan(&exists)
		switch {
		case err == nil:
			return nil, ErrDuplicateLead
		case !errors.Is(err, sql.ErrNoRows):
			return nil, eris.Wrap(err, "sqlite: check lead exists")
		}
	}

	lead.ID = uuid.New().String()
	if lead.Status == "" {
		lead.Status = model.StatusProspect
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, siren, name, revenue, workforce, address, website,
			executive, executive_age, email, phone, registry_url,
			status, notes, cession_reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.SIREN, lead.Name, nullInt(lead.Revenue), lead.Workforce,
		lead.Address, lead.Website, lead.Executive, nullInt(lead.ExecutiveAge),
		lead.Email, lead.Phone, lead.RegistryURL,
		lead.Status, lead.Notes, lead.CessionReason, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert lead")
	}
	return &lead, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, siren, name, revenue, workforce, address, website,
			executive, executive_age, email, phone, registry_url,
			status, notes, cession_reason, created_at, updated_at
		 FROM leads WHERE id = ?`, id,
	)
	return scanLead(row)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, siren, name, revenue, workforce, address, website,
			executive, executive_age, email, phone, registry_url,
			status, notes, cession_reason, created_at, updated_at
		 FROM leads`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, lead model.Lead) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET name = ?, revenue = ?, workforce = ?, address = ?,
			website = ?, executive = ?, executive_age = ?, email = ?, phone = ?,
			registry_url = ?, status = ?, notes = ?, cession_reason = ?, updated_at = ?
		 WHERE id = ?`,
		lead.Name, nullInt(lead.Revenue), lead.Workforce, lead.Address,
		lead.Website, lead.Executive, nullInt(lead.ExecutiveAge), lead.Email,
		lead.Phone, lead.RegistryURL, lead.Status, lead.Notes, lead.CessionReason,
		time.Now().UTC(), lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", lead.ID)
	}
	return checkRowsAffected(res, lead.ID)
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	return checkRowsAffected(res, id)
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrap(ErrLeadNotFound, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var revenue, age sql.NullInt64

	err := row.Scan(&l.ID, &l.SIREN, &l.Name, &revenue, &l.Workforce,
		&l.Address, &l.Website, &l.Executive, &age, &l.Email, &l.Phone,
		&l.RegistryURL, &l.Status, &l.Notes, &l.CessionReason,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}

	l.Revenue = intPtr(revenue)
	l.ExecutiveAge = intPtr(age)
	return &l, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
