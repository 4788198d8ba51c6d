// =============================================================================
// Avisos Generator - Transformation Engine
// =============================================================================
//
// This module applies the per-activity transformation rules to source
// columns before they are mapped to record fields. Typical uses:
//   - Normalizing catalog values ("EFECTIVO" -> "1-Efectivo" via lookup)
//   - Repairing tax ids (remove separators, uppercase)
//   - Converting source-specific date layouts
//   - Filling blanks from another column
//
// Output formatting for the regulator (amount decimals, YYYYMMDD dates,
// uppercase ASCII text) is not done here; the generator owns it.
//
// =============================================================================

package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/avisos/internal/config"
)

var (
	digitsPattern     = regexp.MustCompile(`\d+`)
	lettersPattern    = regexp.MustCompile(`\pL+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies transformation rules keyed by source column.
type Transformer struct {
	rules    map[string][]config.TransformationAction
	order    []string
	patterns map[string]*regexp.Regexp
}

// NewTransformer creates a Transformer and validates every action. Rules
// for the same column are concatenated in declaration order.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{
		rules:    make(map[string][]config.TransformationAction),
		patterns: make(map[string]*regexp.Regexp),
	}
	for _, rule := range rules {
		for _, action := range rule.Actions {
			if !supportedActions[action.Type] {
				return nil, fmt.Errorf("column %q: unknown transformation type %q", rule.Field, action.Type)
			}
			if action.Type == "regex_replace" && action.Find != "" {
				if _, ok := t.patterns[action.Find]; !ok {
					re, err := regexp.Compile(action.Find)
					if err != nil {
						return nil, fmt.Errorf("column %q: invalid regex pattern: %w", rule.Field, err)
					}
					t.patterns[action.Find] = re
				}
			}
		}
		if _, seen := t.rules[rule.Field]; !seen {
			t.order = append(t.order, rule.Field)
		}
		t.rules[rule.Field] = append(t.rules[rule.Field], rule.Actions...)
	}
	return t, nil
}

// Columns returns the source columns that have rules, in declaration order.
func (t *Transformer) Columns() []string {
	return append([]string(nil), t.order...)
}

// Transform applies the rules of column to value. allFields holds the raw
// row, used by "if_empty_use_field".
func (t *Transformer) Transform(column, value string, allFields map[string]string) string {
	result := value
	for _, action := range t.rules[column] {
		result = t.apply(result, action, allFields)
	}
	return result
}

// TransformRow applies every rule to a copy of row. Columns with rules that
// are missing from the row are treated as blank.
func (t *Transformer) TransformRow(row map[string]string) map[string]string {
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = v
	}
	for _, column := range t.order {
		out[column] = t.Transform(column, row[column], row)
	}
	return out
}

// supportedActions lists the transformation types accepted in configuration.
var supportedActions = map[string]bool{
	"prepend_string": true, "append_string": true,
	"trim": true, "trim_left": true, "trim_right": true,
	"uppercase": true, "lowercase": true,
	"replace": true, "regex_replace": true, "remove_characters": true,
	"substring": true, "truncate": true,
	"pad_zeros_to_length": true, "ensure_length": true, "remove_leading_zeros": true,
	"format_number": true, "format_date": true,
	"lookup": true, "lookup_with_default": true,
	"if_empty_use_default": true, "if_empty_use_field": true,
	"extract_digits": true, "extract_letters": true, "normalize_whitespace": true,
}

// apply applies a single transformation action. Values that a numeric or
// date action cannot parse are returned unchanged.
func (t *Transformer) apply(value string, action config.TransformationAction, allFields map[string]string) string {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value

	case "append_string":
		return value + action.Value

	case "trim":
		return strings.TrimSpace(value)

	case "trim_left":
		if action.Value != "" {
			return strings.TrimLeft(value, action.Value)
		}
		return strings.TrimLeft(value, " \t\n\r")

	case "trim_right":
		if action.Value != "" {
			return strings.TrimRight(value, action.Value)
		}
		return strings.TrimRight(value, " \t\n\r")

	case "uppercase":
		return strings.ToUpper(value)

	case "lowercase":
		return strings.ToLower(value)

	case "replace":
		// find "-" value "" : "AAA-010101-AAA" -> "AAA010101AAA"
		if action.Find == "" {
			return value
		}
		return strings.ReplaceAll(value, action.Find, action.Value)

	case "regex_replace":
		re, ok := t.patterns[action.Find]
		if !ok {
			return value
		}
		return re.ReplaceAllString(value, action.Value)

	case "remove_characters":
		// Every character of Value is removed.
		return strings.Map(func(r rune) rune {
			if strings.ContainsRune(action.Value, r) {
				return -1
			}
			return r
		}, value)

	case "substring":
		// VALUE FORMAT: "start,end" in characters, end exclusive.
		parts := strings.Split(action.Value, ",")
		if len(parts) != 2 {
			return value
		}
		start, _ := strconv.Atoi(strings.TrimSpace(parts[0]))
		end, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
		runes := []rune(value)
		if start < 0 {
			start = 0
		}
		if end > len(runes) {
			end = len(runes)
		}
		if start >= end {
			return ""
		}
		return string(runes[start:end])

	case "truncate":
		n, err := strconv.Atoi(action.Value)
		if err != nil || n < 0 {
			return value
		}
		if runes := []rune(value); len(runes) > n {
			return string(runes[:n])
		}
		return value

	// =========================================================================
	// NUMERIC FORMATTING
	// =========================================================================

	case "pad_zeros_to_length":
		// "123" with value "8" -> "00000123"
		n, err := strconv.Atoi(action.Value)
		if err != nil || n <= 0 {
			return value
		}
		return padLeft(value, n, '0')

	case "ensure_length":
		// Truncate from the right or pad with leading zeros.
		n, err := strconv.Atoi(action.Value)
		if err != nil || n <= 0 {
			return value
		}
		if runes := []rune(value); len(runes) > n {
			return string(runes[:n])
		}
		return padLeft(value, n, '0')

	case "remove_leading_zeros":
		if result := strings.TrimLeft(value, "0"); result != "" {
			return result
		}
		if value == "" {
			return ""
		}
		return "0"

	case "format_number":
		// "1234.5" with value "2" -> "1234.50"
		places, err := strconv.Atoi(action.Value)
		if err != nil || places < 0 {
			return value
		}
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return value
		}
		return d.StringFixed(int32(places))

	// =========================================================================
	// DATE CONVERSIONS
	// =========================================================================

	case "format_date":
		// VALUE FORMAT: "input_layout|output_layout" in Go time layouts.
		// "15/01/2024" with "02/01/2006|2006-01-02" -> "2024-01-15"
		parts := strings.Split(action.Value, "|")
		if len(parts) != 2 {
			return value
		}
		parsed, err := time.Parse(strings.TrimSpace(parts[0]), strings.TrimSpace(value))
		if err != nil {
			return value
		}
		return parsed.Format(strings.TrimSpace(parts[1]))

	// =========================================================================
	// LOOKUP TABLE REPLACEMENTS
	// =========================================================================

	case "lookup":
		if replacement, exists := lookup(action.LookupTable, value); exists {
			return replacement
		}
		return value

	case "lookup_with_default":
		if replacement, exists := lookup(action.LookupTable, value); exists {
			return replacement
		}
		return action.Value

	// =========================================================================
	// CONDITIONAL FILLS
	// =========================================================================

	case "if_empty_use_default":
		if strings.TrimSpace(value) == "" {
			return action.Value
		}
		return value

	case "if_empty_use_field":
		if strings.TrimSpace(value) == "" {
			if other, exists := allFields[action.Value]; exists {
				return other
			}
		}
		return value

	// =========================================================================
	// CLEANUP
	// =========================================================================

	case "extract_digits":
		// "55-1234-5678" -> "5512345678"
		return strings.Join(digitsPattern.FindAllString(value, -1), "")

	case "extract_letters":
		return strings.Join(lettersPattern.FindAllString(value, -1), "")

	case "normalize_whitespace":
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(value, " "))
	}

	return value
}

// lookup matches value exactly first, then trimmed and case-insensitively.
func lookup(table map[string]string, value string) (string, bool) {
	if replacement, ok := table[value]; ok {
		return replacement, true
	}
	trimmed := strings.TrimSpace(value)
	for k, v := range table {
		if strings.EqualFold(strings.TrimSpace(k), trimmed) {
			return v, true
		}
	}
	return "", false
}

// padLeft pads s with padChar on the left to length characters.
func padLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
