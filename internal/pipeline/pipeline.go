// Package pipeline sequences the prospect search: criteria validation,
// paginated registry search, per-company detail fetch, extraction, local
// filtering, and optional contact enrichment.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/repriselab/prospect-cli/internal/extract"
	"github.com/repriselab/prospect-cli/internal/model"
	"github.com/repriselab/prospect-cli/internal/normalize"
	"github.com/repriselab/prospect-cli/pkg/fullenrich"
	"github.com/repriselab/prospect-cli/pkg/pappers"
)

// DefaultMaxResults caps a search when the criteria do not set one.
const DefaultMaxResults = 100

// Pipeline runs searches against injected registry and enrichment clients.
// All remote calls are sequential; the clients own their own pacing.
type Pipeline struct {
	registry pappers.Client
	enricher fullenrich.Client
	pollOpts []fullenrich.PollOption
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPollOptions sets the enrichment polling behavior.
func WithPollOptions(opts ...fullenrich.PollOption) Option {
	return func(p *Pipeline) {
		p.pollOpts = opts
	}
}

// New creates a Pipeline with explicit client dependencies.
func New(registry pappers.Client, enricher fullenrich.Client, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: registry,
		enricher: enricher,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildQuery maps validated criteria onto the registry's query parameters.
// A sector that looks like a NAF code is sent structured; otherwise it
// becomes a free-text term, combined with the city when both are set.
func BuildQuery(c model.Criteria) pappers.SearchQuery {
	q := pappers.SearchQuery{
		Department:      strings.TrimSpace(c.Department),
		LegalForm:       strings.TrimSpace(c.LegalForm),
		RevenueMin:      c.RevenueMin,
		RevenueMax:      c.RevenueMax,
		ExecutiveAgeMin: c.ExecutiveAgeMin,
		RCSStatus:       strings.TrimSpace(c.RCSStatus),
		IncludeCeased:   c.IncludeCeased,
	}

	sector := strings.TrimSpace(c.Sector)
	city := strings.TrimSpace(c.City)
	switch {
	case sector != "" && normalize.IsActivityCode(sector):
		q.NAFCode = strings.ToUpper(sector)
	case sector != "" && city != "":
		q.Query = sector + " " + city
	case sector != "":
		q.Query = sector
	case city != "":
		q.Query = city
	}

	if c.Region != "" {
		q.Region = normalize.RegionToCode(c.Region)
	}
	if c.CreatedAfterYear > 0 {
		q.CreatedAfter = fmt.Sprintf("%d-01-01", c.CreatedAfterYear)
	}
	return q
}

// Run executes search, detail fetch, extraction, and local filtering for the
// given criteria. A failed detail fetch degrades that company to its search
// summary. A search error is returned alongside whatever was accumulated
// before the failure; callers that require completeness should discard the
// partial results.
func (p *Pipeline) Run(ctx context.Context, criteria model.Criteria) ([]model.Company, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	max := criteria.MaxResults
	if max <= 0 {
		max = DefaultMaxResults
	}

	hits, searchErr := pappers.SearchAll(ctx, p.registry, BuildQuery(criteria), max)
	if searchErr != nil {
		zap.L().Warn("registry search aborted",
			zap.Int("accumulated", len(hits)),
			zap.Error(searchErr),
		)
	}
	if len(hits) == 0 {
		return nil, searchErr
	}

	companies := make([]model.Company, 0, len(hits))
	for i := range hits {
		hit := &hits[i]

		var detail *pappers.CompanyDetail
		if hit.SIREN != "" {
			d, err := p.registry.Company(ctx, hit.SIREN)
			if err != nil {
				// Detail is an enhancement; extraction falls back to
				// the search summary.
				zap.L().Warn("detail fetch failed",
					zap.String("siren", hit.SIREN),
					zap.Error(err),
				)
			} else {
				detail = d
			}
		}

		companies = append(companies, extract.Company(hit, detail))
	}

	companies = Filter(companies,
		Range{Min: criteria.WorkforceMin, Max: criteria.WorkforceMax},
		Range{Min: criteria.NetIncomeMin, Max: criteria.NetIncomeMax},
	)

	zap.L().Info("pipeline run complete",
		zap.Int("hits", len(hits)),
		zap.Int("after_filters", len(companies)),
	)
	return companies, searchErr
}

// EnrichOutcome summarizes an enrichment pass.
type EnrichOutcome struct {
	Submitted   int `json:"submitted"`
	Enriched    int `json:"enriched"`
	CreditsUsed int `json:"credits_used"`
}

// EnrichableCount returns how many of the first max companies carry an
// identified executive and would be submitted for enrichment. It backs the
// pre-flight credit estimate.
func EnrichableCount(companies []model.Company, max int) int {
	n := 0
	for _, c := range capCompanies(companies, max) {
		if c.ExecutiveFirstName != "" || c.ExecutiveLastName != "" {
			n++
		}
	}
	return n
}

// Enrich submits the identified executives of the first max companies and
// writes the resolved emails and phones back in place. Companies without an
// identified executive are skipped; when none qualify no remote call is
// made.
func (p *Pipeline) Enrich(ctx context.Context, companies []model.Company, max int) (*EnrichOutcome, error) {
	candidates := capCompanies(companies, max)

	var indices []int
	var contacts []fullenrich.ContactInput
	for i := range candidates {
		c := &candidates[i]
		if c.ExecutiveFirstName == "" && c.ExecutiveLastName == "" {
			continue
		}
		indices = append(indices, i)
		contacts = append(contacts, fullenrich.ContactInput{
			FirstName:   c.ExecutiveFirstName,
			LastName:    c.ExecutiveLastName,
			Domain:      c.Website,
			CompanyName: c.Name,
		})
	}

	if len(contacts) == 0 {
		zap.L().Info("no identified executives, skipping enrichment")
		return &EnrichOutcome{}, nil
	}

	name := "prospection-" + time.Now().Format("20060102-150405")
	result, err := fullenrich.SubmitAndAwait(ctx, p.enricher, name, contacts,
		[]fullenrich.Field{fullenrich.FieldEmails, fullenrich.FieldPhones},
		p.pollOpts...,
	)
	if err != nil {
		return nil, err
	}

	outcome := &EnrichOutcome{
		Submitted:   len(contacts),
		CreditsUsed: result.CreditsUsed,
	}
	for _, r := range result.Results {
		if r.Index >= len(indices) {
			break
		}
		c := &companies[indices[r.Index]]
		c.Email = r.Email
		c.Phone = r.Phone
		if r.Email != "" || r.Phone != "" {
			outcome.Enriched++
		}
	}

	zap.L().Info("enrichment complete",
		zap.Int("submitted", outcome.Submitted),
		zap.Int("enriched", outcome.Enriched),
		zap.Int("credits_used", outcome.CreditsUsed),
	)
	return outcome, nil
}

func capCompanies(companies []model.Company, max int) []model.Company {
	if max > 0 && len(companies) > max {
		return companies[:max]
	}
	return companies
}
