package sanitize

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	amountPattern = regexp.MustCompile(`^\d+\.\d{2}$`)
	datePattern   = regexp.MustCompile(`^\d{8}$`)
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"diacritics", "José Peña Núñez", 0, "JOSE PENA NUNEZ"},
		{"reserved characters", `Tom & Jerry <"S.A.">'`, 0, "TOM JERRY S.A."},
		{"control characters", "ab\x00c\x07d", 0, "ABCD"},
		{"whitespace collapsed", "  uno \t dos\n\ntres  ", 0, "UNO DOS TRES"},
		{"truncated", "abcdefghij", 4, "ABCD"},
		{"truncation trims trailing space", "ab cd", 3, "AB"},
		{"empty", "", 10, ""},
		{"non ascii dropped", "café €100", 0, "CAFE 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.in, tt.max))
		})
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	samples := []string{
		"José Peña", "ÁÉÍÓÚ áéíóú ñÑ", `<a href="x">&amp;</a>`, "  spaced   out  ",
		"línea\r\nnueva", "Ünïcödé çedilla", "1-Efectivo", "",
		strings.Repeat("Ñandú ", 100),
	}
	for _, s := range samples {
		for _, max := range []int{0, 5, 50} {
			once := SanitizeText(s, max)
			assert.Equal(t, once, SanitizeText(once, max), "input %q max %d", s, max)
		}
	}
}

func TestSanitizeText_OutputAlphabet(t *testing.T) {
	out := SanitizeText("Ça va? <Ñoño> & 'quote' \"dq\" \x1b[0m", 0)
	for _, r := range out {
		assert.True(t, r < 128, "non ascii %q", r)
		assert.False(t, strings.ContainsRune(reservedChars, r))
		assert.False(t, r >= 'a' && r <= 'z', "lowercase %q", r)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "deposito en efectivo", Fold("  DEPÓSITO   en Efectivo "))
	assert.Equal(t, "pago de premio", Fold("Pago de Premio"))
}

func TestSanitizeTaxID(t *testing.T) {
	assert.Equal(t, "ABC010101AB1", SanitizeTaxID("abc-010101-ab1"))
	assert.Equal(t, "ÑAB&010101XYZ", SanitizeTaxID("ñab&010101xyz"))
	assert.Equal(t, "ABCD010101AB1", SanitizeTaxID("ABCD010101AB1EXTRA"))
	assert.Equal(t, "", SanitizeTaxID("  --  "))
	assert.LessOrEqual(t, len([]rune(SanitizeTaxID(strings.Repeat("X", 40)))), MaxTaxIDLength)
}

func TestSanitizeAlphanumeric(t *testing.T) {
	assert.Equal(t, "PEGJ800101HDFRRN09", SanitizeAlphanumeric("pegj-800101 hdfrrn09", MaxPopulationIDLen))
	assert.Equal(t, "1HGCM", SanitizeAlphanumeric("1hg-cm82633a004352", 5))
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"1234.5":     "1234.50",
		"$1,234.567": "1234.57",
		"-99.999":    "100.00",
		"0":          "0.00",
		"":           "0.00",
		"N/A":        "0.00",
		"12abc":      "0.00",
		"1e3":        "1000.00",
		"(150.00)":   "150.00",
		"2,500 MXN":  "2500.00",
		"1e99":       "0.00",
	}
	for in, want := range tests {
		got := FormatAmount(in)
		assert.Equal(t, want, got, "input %q", in)
		assert.Regexp(t, amountPattern, got)
	}
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "18.00", FormatDecimal("18", 2))
	assert.Equal(t, "0.12345679", FormatDecimal("0.123456789", 8))
	assert.Equal(t, "0.000", FormatDecimal("heavy", 3))
	assert.Equal(t, "5", FormatDecimal("4.6", -1))
	assert.True(t, IsNumeric("$10"))
	assert.False(t, IsNumeric("ten"))
}

func TestFormatDate(t *testing.T) {
	tests := map[string]string{
		"2024-01-15":           "20240115",
		"20240115":             "20240115",
		"15/01/2024":           "20240115",
		"2024/01/15":           "20240115",
		"15-01-2024":           "20240115",
		"2024-01-15T10:30:00Z": "20240115",
		"2024-01-15 10:30:00":  "20240115",
		"45306":                "20240115",
		"45306.5":              "20240115",
		"2024":                 "",
		"15":                   "",
		"9999":                 "",
		"":                     "",
		"not a date":           "",
		"2024-13-45":           "",
		"31/02/2024":           "",
	}
	for in, want := range tests {
		got := FormatDate(in)
		assert.Equal(t, want, got, "input %q", in)
		if got != "" {
			assert.Regexp(t, datePattern, got)
		}
	}
}

func TestFormatPostalCode(t *testing.T) {
	assert.Equal(t, "01000", FormatPostalCode("1000"))
	assert.Equal(t, "06600", FormatPostalCode("CP 06600"))
	assert.Equal(t, "12345", FormatPostalCode("123456"))
	assert.Equal(t, "00000", FormatPostalCode(""))
	assert.Equal(t, "00000", FormatPostalCode("sin dato"))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "5512345678", DigitsOnly("(55) 1234-5678", 0))
	assert.Equal(t, "55", DigitsOnly("(55) 1234-5678", 2))
	assert.Equal(t, "4321", LastDigits("4111 1111 1111 4321", 4))
	assert.Equal(t, "12", LastDigits("12", 4))
	assert.Equal(t, "0042", PadLeft("42", 4, '0'))
}

func TestExtractCatalogCode(t *testing.T) {
	tests := map[string]string{
		"1-Efectivo":   "1",
		"3 - Cheque":   "3",
		"12":           "12",
		"  Efectivo  ": "Efectivo",
		"100 pesos":    "100 pesos",
		"":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractCatalogCode(in), "input %q", in)
	}
}

func TestExtractCatalogLabel(t *testing.T) {
	tests := map[string]string{
		"2-USD":   "USD",
		"1 - MXN": "MXN",
		"EUR":     "EUR",
		"":        "MXN",
		"3-":      "MXN",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractCatalogLabel(in), "input %q", in)
	}
}
