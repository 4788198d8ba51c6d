package sanitize

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order. Day-first layouts come before month-first
// ones because the source exports are Mexican.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
	"02.01.2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// spreadsheetEpoch is day zero of the 1900 date system used by spreadsheet
// serial numbers.
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// FormatDate renders value as YYYYMMDD, or "" when it is not a date.
//
// Accepted inputs include ISO dates, compact YYYYMMDD, day-first dates with
// "/", "-" or "." separators, timestamps and spreadsheet serial day numbers.
func FormatDate(value string) string {
	t, ok := ParseDate(value)
	if !ok {
		return ""
	}
	return t.Format("20060102")
}

// ParseDate parses value with the accepted layouts.
func ParseDate(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return validYear(t)
		}
	}

	if t, ok := parseSerialDate(v); ok {
		return validYear(t)
	}
	return time.Time{}, false
}

// minSerialDay is the smallest accepted spreadsheet day number (1927-05-18).
// Shorter integers are years or day numbers, not dates.
const minSerialDay = 10000

// parseSerialDate interprets five integer digits (optionally with a
// fractional time part) as a spreadsheet day number.
func parseSerialDate(v string) (time.Time, bool) {
	whole := v
	if idx := strings.IndexByte(v, '.'); idx >= 0 {
		whole = v[:idx]
		if DigitsOnly(v[idx+1:], 0) != v[idx+1:] {
			return time.Time{}, false
		}
	}
	if whole == "" || len(whole) > 5 || DigitsOnly(whole, 0) != whole {
		return time.Time{}, false
	}
	days, err := strconv.Atoi(whole)
	if err != nil || days < minSerialDay {
		return time.Time{}, false
	}
	return spreadsheetEpoch.AddDate(0, 0, days), true
}

func validYear(t time.Time) (time.Time, bool) {
	if t.Year() < 1900 || t.Year() > 9999 {
		return time.Time{}, false
	}
	return t, true
}
