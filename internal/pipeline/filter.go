package pipeline

import "github.com/repriselab/prospect-cli/internal/model"

// Range is a closed numeric interval with optional bounds.
type Range struct {
	Min *int
	Max *int
}

// IsZero reports whether the range has no bounds at all.
func (r Range) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// Admits reports whether v falls inside the range. An unknown value always
// passes: absence of data is not grounds for exclusion.
func (r Range) Admits(v *int) bool {
	if v == nil {
		return true
	}
	if r.Min != nil && *v < *r.Min {
		return false
	}
	if r.Max != nil && *v > *r.Max {
		return false
	}
	return true
}

// Filter applies the workforce and net-income range filters. The workforce
// filter reads the precise headcount, not the display value, so bracket
// labels never disqualify a company.
func Filter(companies []model.Company, workforce, netIncome Range) []model.Company {
	if workforce.IsZero() && netIncome.IsZero() {
		return companies
	}

	filtered := companies[:0]
	for _, c := range companies {
		if !workforce.Admits(c.WorkforceCount) {
			continue
		}
		if !netIncome.Admits(c.NetIncome) {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}
