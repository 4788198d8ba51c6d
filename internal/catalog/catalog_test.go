package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePersonType(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		taxID    string
		want     string
	}{
		{"explicit moral", "Persona Moral", "", PersonTypeLegal},
		{"explicit fisica with accent", "Persona Física", "ABC010101AB1", PersonTypeNatural},
		{"explicit code", "2-Moral", "", PersonTypeLegal},
		{"numeric code", "1", "ABC010101AB1", PersonTypeNatural},
		{"abbreviation", "PM", "", PersonTypeLegal},
		{"twelve char tax id", "", "ABC010101AB1", PersonTypeLegal},
		{"thirteen char tax id", "", "ABCD010101AB1", PersonTypeNatural},
		{"tax id with separators", "", "abc-010101-ab1", PersonTypeLegal},
		{"no signal", "", "", PersonTypeNatural},
		{"unrecognized marker falls back", "otro", "ABC010101AB1", PersonTypeLegal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePersonType(tt.explicit, tt.taxID))
		})
	}
}

func TestCurrencyLabel(t *testing.T) {
	assert.Equal(t, "USD", CurrencyLabel("2-USD"))
	assert.Equal(t, "MXN", CurrencyLabel(""))
	assert.Equal(t, "USD", CurrencyLabel("2"))
	assert.Equal(t, "EUR", CurrencyLabel("eur"))
	assert.Equal(t, "MXN", CurrencyLabel("--"))
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "MX", CountryCode(""))
	assert.Equal(t, "MX", CountryCode("México"))
	assert.Equal(t, "US", CountryCode("1-Estados Unidos"))
	assert.Equal(t, "CO", CountryCode("co"))
	assert.Equal(t, "MX", CountryCode("?"))
}
