package model

import "github.com/rotisserie/eris"

// ErrNoCriteria is returned when a search carries no usable filter at all.
var ErrNoCriteria = eris.New("at least one search criterion is required")

// Criteria is the validated input of a prospect search. Pointer fields are
// optional bounds; nil means unconstrained. The JSON tags match the public
// API request body.
type Criteria struct {
	Sector           string `json:"secteur"`
	Region           string `json:"region"`
	Department       string `json:"departement"`
	City             string `json:"ville"`
	LegalForm        string `json:"forme_juridique"`
	RevenueMin       *int   `json:"ca_min"`
	RevenueMax       *int   `json:"ca_max"`
	WorkforceMin     *int   `json:"effectif_min"`
	WorkforceMax     *int   `json:"effectif_max"`
	NetIncomeMin     *int   `json:"resultat_min"`
	NetIncomeMax     *int   `json:"resultat_max"`
	ExecutiveAgeMin  *int   `json:"age_min_dirigeant"`
	CreatedAfterYear int    `json:"date_creation_min"`
	RCSStatus        string `json:"statut_rcs"`
	IncludeCeased    bool   `json:"entreprise_cessee"`
	MaxResults       int    `json:"max_resultats"`
}

// Validate rejects criteria that would query the registry with no filter:
// at least a location, a sector, or a revenue bound must be present.
func (c Criteria) Validate() error {
	if c.Sector == "" && c.Region == "" && c.Department == "" && c.City == "" &&
		c.RevenueMin == nil && c.RevenueMax == nil {
		return ErrNoCriteria
	}
	return nil
}
