// Package normalize maps human search inputs to the forms the registry API
// expects: region names to INSEE codes, sector strings to NAF codes or
// free-text queries, and company names to URL slugs.
package normalize

import (
	_ "embed"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var regionsYAML []byte

// regionCodes maps normalized region names to INSEE codes. Keys are
// normalized once at load so the YAML can carry accented spellings.
var regionCodes = func() map[string]string {
	var raw map[string]string
	if err := yaml.Unmarshal(regionsYAML, &raw); err != nil {
		panic("normalize: parse regions.yaml: " + err.Error())
	}
	m := make(map[string]string, len(raw))
	for name, code := range raw {
		m[Fold(name)] = code
	}
	return m
}()

// nafPattern matches NAF activity codes: four digits followed by one letter.
var nafPattern = regexp.MustCompile(`^\d{4}[A-Za-z]$`)

// slugPattern matches runs of characters that are not lowercase alphanumerics.
var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// StripDiacritics removes combining marks from s ("Société" -> "Societe").
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases s, strips diacritics, and trims surrounding whitespace.
// Used for diacritic-insensitive matching.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(StripDiacritics(s)))
}

// RegionToCode converts a region name to its INSEE code. Numeric input is
// already a code and is returned as-is. Unknown names are returned unchanged
// so the registry API can reject them with its own error message.
func RegionToCode(region string) string {
	trimmed := strings.TrimSpace(region)
	if trimmed != "" && isDigits(trimmed) {
		return trimmed
	}
	if code, ok := regionCodes[Fold(region)]; ok {
		return code
	}
	return region
}

// IsActivityCode reports whether the sector string is a structured NAF code
// (e.g. "4322A") rather than a free-text keyword.
func IsActivityCode(sector string) bool {
	return nafPattern.MatchString(strings.TrimSpace(sector))
}

// Slug builds a registry-style URL slug from a company name: lowercase,
// diacritics stripped, runs of non-alphanumerics collapsed to single hyphens.
func Slug(name string) string {
	s := strings.ToLower(StripDiacritics(name))
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
