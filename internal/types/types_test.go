package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"202401", Period{2024, 1}, false},
		{"2024-12", Period{2024, 12}, false},
		{" 2023/07 ", Period{2023, 7}, false},
		{"202413", Period{}, true},
		{"2024", Period{}, true},
		{"abcdef", Period{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriod_String(t *testing.T) {
	assert.Equal(t, "202403", Period{Year: 2024, Month: 3}.String())
	assert.True(t, Period{}.IsZero())
	assert.False(t, Period{Year: 2024, Month: 0}.Valid())
}

func TestOperationRecord_Extra(t *testing.T) {
	r := OperationRecord{Extras: map[string]string{"brand": "Nissan", "blank": "  "}}

	v, ok := r.Extra("brand")
	assert.True(t, ok)
	assert.Equal(t, "Nissan", v)

	_, ok = r.Extra("blank")
	assert.False(t, ok)

	_, ok = OperationRecord{}.Extra("brand")
	assert.False(t, ok)
}

func TestDomicileAndContactIsEmpty(t *testing.T) {
	assert.True(t, Domicile{}.IsEmpty())
	assert.True(t, Domicile{Street: "   "}.IsEmpty())
	assert.False(t, Domicile{PostalCode: "01000"}.IsEmpty())
	assert.True(t, Contact{}.IsEmpty())
	assert.False(t, Contact{Email: "a@b.mx"}.IsEmpty())
}
