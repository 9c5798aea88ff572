package pappers

// Office is the registered-office sub-record shared by search results and
// detail records.
type Office struct {
	NumeroVoie        string `json:"numero_voie"`
	IndiceRepetition  string `json:"indice_repetition"`
	TypeVoie          string `json:"type_voie"`
	LibelleVoie       string `json:"libelle_voie"`
	ComplementAdresse string `json:"complement_adresse"`
	CodePostal        string `json:"code_postal"`
	Ville             string `json:"ville"`
	DomaineURL        string `json:"domaine_url"`
}

// Representative is a company officer. PersonneMorale marks corporate
// representatives (holdings, parent companies) as opposed to natural persons.
type Representative struct {
	Prenom                  string `json:"prenom"`
	Nom                     string `json:"nom"`
	NomComplet              string `json:"nom_complet"`
	PersonneMorale          bool   `json:"personne_morale"`
	Age                     *int   `json:"age"`
	DateDeNaissance         string `json:"date_de_naissance"`
	DateDeNaissanceFormatee string `json:"date_de_naissance_formate"`
}

// FinanceEntry is one year of published financials, newest first in the
// detail record's Finances list.
type FinanceEntry struct {
	Annee           int  `json:"annee"`
	ChiffreAffaires *int `json:"chiffre_affaires"`
	Resultat        *int `json:"resultat"`
	Effectif        *int `json:"effectif"`
}

// SearchResult is the summary record returned by the /recherche endpoint.
// Dirigeants is often empty here; the detail record carries the full list.
type SearchResult struct {
	SIREN             string           `json:"siren"`
	NomEntreprise     string           `json:"nom_entreprise"`
	Denomination      string           `json:"denomination"`
	ChiffreAffaires   *int             `json:"chiffre_affaires"`
	Resultat          *int             `json:"resultat"`
	Effectif          string           `json:"effectif"`
	EffectifsFinances *int             `json:"effectifs_finances"`
	TrancheEffectif   string           `json:"tranche_effectif"`
	DomaineURL        string           `json:"domaine_url"`
	Siege             *Office          `json:"siege"`
	Dirigeants        []Representative `json:"dirigeants"`
}

// CompanyDetail is the full record returned by the /entreprise endpoint.
type CompanyDetail struct {
	SIREN           string           `json:"siren"`
	NomEntreprise   string           `json:"nom_entreprise"`
	Denomination    string           `json:"denomination"`
	Effectif        string           `json:"effectif"`
	TrancheEffectif string           `json:"tranche_effectif"`
	DomaineURL      string           `json:"domaine_url"`
	Siege           *Office          `json:"siege"`
	Finances        []FinanceEntry   `json:"finances"`
	Representants   []Representative `json:"representants"`
	Dirigeants      []Representative `json:"dirigeants"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	Resultats []SearchResult `json:"resultats"`
}
