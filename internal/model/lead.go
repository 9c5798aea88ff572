package model

import "time"

// StatusProspect is the default workflow status for a newly stored lead.
const StatusProspect = "prospect"

// Lead is a curated company persisted by the operator, a subset of Company
// plus workflow fields. Status is free-form; CessionReason records why the
// owner is believed to be selling.
type Lead struct {
	ID            string    `json:"id" csv:"-"`
	SIREN         string    `json:"siren" csv:"siren"`
	Name          string    `json:"nom_entreprise" csv:"nom_entreprise"`
	Revenue       *int      `json:"chiffre_affaires" csv:"chiffre_affaires"`
	Workforce     string    `json:"effectif" csv:"effectif"`
	Address       string    `json:"adresse" csv:"adresse"`
	Website       string    `json:"site_web" csv:"site_web"`
	Executive     string    `json:"nom_dirigeant" csv:"nom_dirigeant"`
	ExecutiveAge  *int      `json:"age_dirigeant" csv:"age_dirigeant"`
	Email         string    `json:"email_dirigeant" csv:"email_dirigeant"`
	Phone         string    `json:"mobile_dirigeant" csv:"mobile_dirigeant"`
	RegistryURL   string    `json:"pappers_url" csv:"pappers_url"`
	Status        string    `json:"statut" csv:"statut"`
	Notes         string    `json:"notes" csv:"notes"`
	CessionReason string    `json:"raison_cession" csv:"raison_cession"`
	CreatedAt     time.Time `json:"created_at" csv:"-"`
	UpdatedAt     time.Time `json:"updated_at" csv:"-"`
}

// LeadFromCompany shapes a pipeline result into a storable lead with the
// default prospect status.
func LeadFromCompany(c Company) Lead {
	return Lead{
		SIREN:        c.SIREN,
		Name:         c.Name,
		Revenue:      c.Revenue,
		Workforce:    c.Workforce,
		Address:      c.Address,
		Website:      c.Website,
		Executive:    c.Executive,
		ExecutiveAge: c.ExecutiveAge,
		Email:        c.Email,
		Phone:        c.Phone,
		RegistryURL:  c.RegistryURL,
		Status:       StatusProspect,
	}
}
