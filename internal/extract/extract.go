// Package extract merges a registry search result and its detail record into
// a normalized company record. Every field resolves through a fixed
// precedence order and degrades to a zero value when no source has it;
// extraction itself never fails.
package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/repriselab/prospect-cli/internal/model"
	"github.com/repriselab/prospect-cli/internal/normalize"
	"github.com/repriselab/prospect-cli/pkg/pappers"
)

// registryBaseURL is the public company-page prefix used to build source
// links from a name slug and SIREN.
const registryBaseURL = "https://www.pappers.fr/entreprise"

// Company merges a search result and a detail record, either of which may be
// nil or empty, into a normalized record.
func Company(search *pappers.SearchResult, detail *pappers.CompanyDetail) model.Company {
	return CompanyAt(search, detail, time.Now().Year())
}

// CompanyAt is Company with an explicit current year for age computation.
func CompanyAt(search *pappers.SearchResult, detail *pappers.CompanyDetail, nowYear int) model.Company {
	if search == nil {
		search = &pappers.SearchResult{}
	}
	if detail == nil {
		detail = &pappers.CompanyDetail{}
	}

	name := search.NomEntreprise
	if name == "" {
		name = search.Denomination
	}

	var finance pappers.FinanceEntry
	if len(detail.Finances) > 0 {
		finance = detail.Finances[0]
	}

	// The registered office comes from the detail record when present; the
	// search summary's copy is the fallback.
	siege := detail.Siege
	if siege == nil {
		siege = search.Siege
	}

	c := model.Company{
		Name:           name,
		SIREN:          search.SIREN,
		Revenue:        firstInt(search.ChiffreAffaires, finance.ChiffreAffaires),
		NetIncome:      firstInt(search.Resultat, finance.Resultat),
		Workforce:      workforce(search, detail, finance),
		WorkforceCount: firstInt(search.EffectifsFinances, finance.Effectif),
		Address:        address(siege),
		Website:        firstString(detail.DomaineURL, search.DomaineURL, officeDomain(siege)),
	}

	if rep := primaryExecutive(search, detail); rep != nil {
		c.ExecutiveFirstName = strings.TrimSpace(rep.Prenom)
		c.ExecutiveLastName = strings.TrimSpace(rep.Nom)
		c.Executive = executiveName(rep)
		c.ExecutiveAge = executiveAge(rep, nowYear)
	}

	if c.Name != "" && c.SIREN != "" {
		if slug := normalize.Slug(c.Name); slug != "" {
			c.RegistryURL = registryBaseURL + "/" + slug + "-" + c.SIREN
		}
	}

	return c
}

// workforce resolves the display value: the precise financial headcount
// wins, then the direct effectif fields, then the financial-history entry,
// then the bracket labels.
func workforce(search *pappers.SearchResult, detail *pappers.CompanyDetail, finance pappers.FinanceEntry) string {
	if search.EffectifsFinances != nil {
		return strconv.Itoa(*search.EffectifsFinances)
	}
	if detail.Effectif != "" {
		return detail.Effectif
	}
	if search.Effectif != "" {
		return search.Effectif
	}
	if finance.Effectif != nil {
		return strconv.Itoa(*finance.Effectif)
	}
	return firstString(detail.TrancheEffectif, search.TrancheEffectif)
}

// address composes "complement, numero indice type libelle, code_postal
// ville" from the registered office, skipping empty segments.
func address(siege *pappers.Office) string {
	if siege == nil {
		return ""
	}

	var street []string
	for _, part := range []string{siege.NumeroVoie, siege.IndiceRepetition, siege.TypeVoie, siege.LibelleVoie} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			street = append(street, trimmed)
		}
	}
	line := strings.Join(street, " ")
	if complement := strings.TrimSpace(siege.ComplementAdresse); complement != "" {
		line = strings.Trim(complement+", "+line, ", ")
	}

	locality := strings.TrimSpace(siege.CodePostal + " " + siege.Ville)

	var segments []string
	for _, s := range []string{line, locality} {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return strings.Join(segments, ", ")
}

func officeDomain(siege *pappers.Office) string {
	if siege == nil {
		return ""
	}
	return siege.DomaineURL
}

// primaryExecutive picks the first natural person from the first non-empty
// representative list (detail representants, then detail dirigeants, then
// search dirigeants). Corporate representatives are skipped unless nobody
// else is listed.
func primaryExecutive(search *pappers.SearchResult, detail *pappers.CompanyDetail) *pappers.Representative {
	var reps []pappers.Representative
	switch {
	case len(detail.Representants) > 0:
		reps = detail.Representants
	case len(detail.Dirigeants) > 0:
		reps = detail.Dirigeants
	case len(search.Dirigeants) > 0:
		reps = search.Dirigeants
	default:
		return nil
	}

	for i := range reps {
		if !reps[i].PersonneMorale {
			return &reps[i]
		}
	}
	return &reps[0]
}

// executiveName prefers the provided full name, which keeps compound first
// names intact, over joining the parts.
func executiveName(rep *pappers.Representative) string {
	if full := strings.TrimSpace(rep.NomComplet); full != "" {
		return full
	}

	var parts []string
	for _, p := range []string{rep.Prenom, rep.Nom} {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// executiveAge uses the provided age when present, otherwise derives it from
// the birth date. Unparseable dates leave the age unknown.
func executiveAge(rep *pappers.Representative, nowYear int) *int {
	if rep.Age != nil {
		return rep.Age
	}
	dob := rep.DateDeNaissance
	if dob == "" {
		dob = rep.DateDeNaissanceFormatee
	}
	return AgeFromBirthDate(dob, nowYear)
}

// AgeFromBirthDate computes nowYear minus the birth year parsed from a
// "YYYY-MM-DD" or "DD/MM/YYYY" date. Returns nil when the date cannot be
// parsed.
func AgeFromBirthDate(dob string, nowYear int) *int {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return nil
	}

	var yearPart string
	if strings.Contains(dob, "-") {
		yearPart = dob[:strings.Index(dob, "-")]
	} else if strings.Contains(dob, "/") {
		yearPart = dob[strings.LastIndex(dob, "/")+1:]
	} else {
		yearPart = dob
	}

	year, err := strconv.Atoi(yearPart)
	if err != nil || year <= 0 {
		return nil
	}
	age := nowYear - year
	return &age
}

func firstInt(candidates ...*int) *int {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstString(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
