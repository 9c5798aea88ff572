// Package model defines the records exchanged between the search pipeline,
// the enrichment step, the lead store, and the export writers.
package model

// Company is the normalized record built from a registry search hit and its
// detail record. It carries the enrichment-input fields (first/last name,
// precise workforce count) that the public projection omits.
type Company struct {
	Name               string
	SIREN              string
	Revenue            *int
	NetIncome          *int
	Workforce          string
	WorkforceCount     *int
	Address            string
	Website            string
	Executive          string
	ExecutiveAge       *int
	ExecutiveFirstName string
	ExecutiveLastName  string
	Email              string
	Phone              string
	RegistryURL        string
}

// Row is the public projection of a Company: the fields shown in API
// responses and exported files, nothing else.
type Row struct {
	Name         string `json:"nom_entreprise" csv:"nom_entreprise"`
	SIREN        string `json:"siren" csv:"siren"`
	Revenue      *int   `json:"chiffre_affaires" csv:"chiffre_affaires"`
	Workforce    string `json:"effectif" csv:"effectif"`
	Address      string `json:"adresse" csv:"adresse"`
	Website      string `json:"site_web" csv:"site_web"`
	Executive    string `json:"nom_dirigeant" csv:"nom_dirigeant"`
	ExecutiveAge *int   `json:"age_dirigeant" csv:"age_dirigeant"`
	Email        string `json:"email_dirigeant" csv:"email_dirigeant"`
	Phone        string `json:"mobile_dirigeant" csv:"mobile_dirigeant"`
	RegistryURL  string `json:"pappers_url" csv:"pappers_url"`
}

// Public maps a Company to its exportable projection.
func (c Company) Public() Row {
	return Row{
		Name:         c.Name,
		SIREN:        c.SIREN,
		Revenue:      c.Revenue,
		Workforce:    c.Workforce,
		Address:      c.Address,
		Website:      c.Website,
		Executive:    c.Executive,
		ExecutiveAge: c.ExecutiveAge,
		Email:        c.Email,
		Phone:        c.Phone,
		RegistryURL:  c.RegistryURL,
	}
}

// Rows maps a slice of companies to their public projections.
func Rows(companies []Company) []Row {
	rows := make([]Row, len(companies))
	for i, c := range companies {
		rows[i] = c.Public()
	}
	return rows
}
