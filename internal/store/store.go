// Package store persists curated leads. Two backends are provided: SQLite
// for single-operator local use and Postgres for a shared deployment.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/repriselab/prospect-cli/internal/model"
)

// ErrDuplicateLead is returned when a lead with the same non-empty SIREN is
// already stored. Enforced by a pre-insert existence check, not a database
// constraint, so it is racy under concurrent writers; acceptable for a
// single-operator tool.
var ErrDuplicateLead = eris.New("store: lead with this SIREN already exists")

// ErrLeadNotFound is returned when no lead matches the given identifier.
var ErrLeadNotFound = eris.New("store: lead not found")

// LeadFilter specifies criteria for listing leads.
type LeadFilter struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for curated leads.
type Store interface {
	CreateLead(ctx context.Context, lead model.Lead) (*model.Lead, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)
	UpdateLead(ctx context.Context, lead model.Lead) error
	DeleteLead(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
