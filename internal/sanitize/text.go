// =============================================================================
// Avisos Generator - Sanitization Library
// =============================================================================
//
// Every textual value that ends up in a regulatory document passes through
// this package. The functions are pure, never panic, and degrade to a safe
// default instead of returning errors: a malformed cell must never abort a
// monthly report.
//
// GUARANTEES:
//   - SanitizeText output is uppercase ASCII without diacritics, control
//     characters or XML-reserved characters, and is idempotent.
//   - FormatAmount output always matches ^\d+\.\d{2}$.
//   - FormatDate output is eight digits or empty.
//   - SanitizeTaxID output is at most 13 characters of [A-ZÑ&0-9].
//
// =============================================================================

package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Length limits shared by the document assembler.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 3000
	MaxShortTextLength   = 100
	MaxTaxIDLength       = 13
	MaxPopulationIDLen   = 18
)

// reservedChars are stripped from sanitized text.
const reservedChars = "&<>\"'"

// =============================================================================
// TEXT
// =============================================================================

// SanitizeText normalizes free text for the regulator's schemas.
//
// PIPELINE:
//  1. Uppercase
//  2. NFD decomposition, combining marks dropped (Á → A, Ñ → N)
//  3. Control characters and & < > " ' removed, non-ASCII dropped
//  4. Whitespace collapsed and trimmed
//  5. Truncated to maxLength characters (maxLength <= 0 means no limit)
func SanitizeText(value string, maxLength int) string {
	if value == "" {
		return ""
	}

	folded := foldDiacritics(strings.ToUpper(value))

	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := true
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		case unicode.IsControl(r), r > unicode.MaxASCII, strings.ContainsRune(reservedChars, r):
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		lastSpace = false
	}

	out := strings.TrimSpace(b.String())
	if maxLength > 0 && len(out) > maxLength {
		out = strings.TrimSpace(out[:maxLength])
	}
	return out
}

// Fold returns value lowercased, without diacritics and with collapsed
// whitespace. It is used for keyword matching, not for output.
func Fold(value string) string {
	folded := foldDiacritics(strings.ToLower(value))
	return strings.Join(strings.Fields(folded), " ")
}

// foldDiacritics removes combining marks after canonical decomposition.
func foldDiacritics(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// SanitizeTaxID keeps only the characters valid in an RFC and truncates to
// 13 characters.
func SanitizeTaxID(value string) string {
	var b strings.Builder
	count := 0
	for _, r := range strings.ToUpper(value) {
		if count == MaxTaxIDLength {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == 'Ñ' || r == '&' {
			b.WriteRune(r)
			count++
		}
	}
	return b.String()
}

// SanitizeAlphanumeric keeps only ASCII letters and digits, uppercased and
// truncated to maxLength. Used for CURP, VIN, plates and similar keys.
func SanitizeAlphanumeric(value string, maxLength int) string {
	folded := foldDiacritics(strings.ToUpper(value))
	var b strings.Builder
	for _, r := range folded {
		if maxLength > 0 && b.Len() == maxLength {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitsOnly keeps the ASCII digits of value, truncated to maxLength.
func DigitsOnly(value string, maxLength int) string {
	var b strings.Builder
	for _, r := range value {
		if maxLength > 0 && b.Len() == maxLength {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LastDigits returns the last n digits of value.
func LastDigits(value string, n int) string {
	digits := DigitsOnly(value, 0)
	if n > 0 && len(digits) > n {
		return digits[len(digits)-n:]
	}
	return digits
}

// FormatPostalCode renders a five digit postal code. Short codes are zero
// padded, empty or digitless input yields "00000".
func FormatPostalCode(value string) string {
	digits := DigitsOnly(value, 5)
	if digits == "" {
		return "00000"
	}
	return PadLeft(digits, 5, '0')
}

// PadLeft pads s on the left with padChar up to length characters.
func PadLeft(s string, length int, padChar rune) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-len(s)) + s
}

// =============================================================================
// CATALOG VALUES
// =============================================================================

// DefaultCurrencyLabel is used when no currency label can be extracted.
const DefaultCurrencyLabel = "MXN"

// ExtractCatalogCode returns the numeric prefix of a "code-label" catalog
// value ("1-Efectivo" → "1"). Values without a numeric prefix are returned
// trimmed.
func ExtractCatalogCode(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	end := 0
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == 0 {
		return v
	}
	rest := strings.TrimSpace(v[end:])
	if rest == "" || strings.HasPrefix(rest, "-") {
		return v[:end]
	}
	return v
}

// ExtractCatalogLabel returns the label of a "code-label" catalog value
// ("2-USD" → "USD"). Empty values and empty labels yield "MXN".
func ExtractCatalogLabel(value string) string {
	v := strings.TrimSpace(value)
	if idx := strings.Index(v, "-"); idx >= 0 {
		v = strings.TrimSpace(v[idx+1:])
	}
	if v == "" {
		return DefaultCurrencyLabel
	}
	return v
}
