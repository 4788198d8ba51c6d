// Package catalog resolves the regulator's catalog codes that cannot be read
// straight from a record: person type, currency label and country code.
package catalog

import (
	"strings"

	"github.com/ginjaninja78/avisos/internal/sanitize"
)

// Person type codes.
const (
	PersonTypeNatural = "1"
	PersonTypeLegal   = "2"
)

// legalEntityTaxIDLength is the RFC length assigned to legal entities;
// natural persons carry 13 characters.
const legalEntityTaxIDLength = 12

// ResolvePersonType returns "1" (natural person) or "2" (legal entity).
//
// An explicit marker wins: text mentioning "moral" or "física", the
// abbreviations PM/PF, or a "1"/"2" catalog code. Without one, a 12 character
// tax id means a legal entity. Anything else, including no signal at all,
// resolves to a natural person.
func ResolvePersonType(explicit, taxID string) string {
	if code, ok := explicitPersonType(explicit); ok {
		return code
	}
	if len([]rune(sanitize.SanitizeTaxID(taxID))) == legalEntityTaxIDLength {
		return PersonTypeLegal
	}
	return PersonTypeNatural
}

func explicitPersonType(explicit string) (string, bool) {
	folded := sanitize.Fold(explicit)
	if folded == "" {
		return "", false
	}
	switch {
	case strings.Contains(folded, "moral"):
		return PersonTypeLegal, true
	case strings.Contains(folded, "fisica"):
		return PersonTypeNatural, true
	case folded == "pm":
		return PersonTypeLegal, true
	case folded == "pf":
		return PersonTypeNatural, true
	}
	switch sanitize.ExtractCatalogCode(folded) {
	case PersonTypeNatural:
		return PersonTypeNatural, true
	case PersonTypeLegal:
		return PersonTypeLegal, true
	}
	return "", false
}

// currencyByCode maps the numeric currency catalog to ISO labels for exports
// that carry only the code.
var currencyByCode = map[string]string{
	"1": "MXN",
	"2": "USD",
	"3": "EUR",
	"4": "GBP",
	"5": "CAD",
	"6": "JPY",
}

// CurrencyLabel returns the currency label of a catalog value, "MXN" when
// none can be determined.
func CurrencyLabel(value string) string {
	label := sanitize.ExtractCatalogLabel(value)
	if iso, ok := currencyByCode[label]; ok {
		return iso
	}
	label = sanitize.SanitizeAlphanumeric(label, 3)
	if label == "" {
		return sanitize.DefaultCurrencyLabel
	}
	return label
}

// DefaultCountry is the nationality and domicile country assumed when the
// record carries none.
const DefaultCountry = "MX"

var countryByName = map[string]string{
	"MEXICO":         "MX",
	"MEXICANA":       "MX",
	"MEXICANO":       "MX",
	"ESTADOS UNIDOS": "US",
	"USA":            "US",
	"EUA":            "US",
	"CANADA":         "CA",
	"ESPANA":         "ES",
	"COLOMBIA":       "CO",
	"ARGENTINA":      "AR",
	"GUATEMALA":      "GT",
}

// CountryCode returns a two letter country code for value.
func CountryCode(value string) string {
	v := strings.TrimSpace(value)
	if idx := strings.Index(v, "-"); idx >= 0 {
		v = v[idx+1:]
	}
	name := sanitize.SanitizeText(v, sanitize.MaxShortTextLength)
	if name == "" {
		return DefaultCountry
	}
	if code, ok := countryByName[name]; ok {
		return code
	}
	code := sanitize.SanitizeAlphanumeric(name, 2)
	if len(code) < 2 {
		return DefaultCountry
	}
	return code
}
