package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/avisos/internal/types"
)

func TestClassify(t *testing.T) {
	k := DefaultKeywordSets()

	tests := []struct {
		operation string
		want      types.Variant
		matched   bool
	}{
		{"Apuesta", types.VariantDeposits, true},
		{"1-Depósito en caja", types.VariantDeposits, true},
		{"RETIRO DE SALDO", types.VariantWithdrawals, true},
		{"Pago de premio", types.VariantWithdrawals, true},
		{"Reembolso", types.VariantWithdrawals, true},
		{"pago de apuesta", types.VariantDeposits, true},
		{"Ajuste manual", types.VariantDeposits, false},
		{"", types.VariantDeposits, false},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			got, matched := k.Classify(tt.operation)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.matched, matched)
		})
	}
}

func TestClassify_WithdrawalsWin(t *testing.T) {
	// "cobro de apuesta" carries both a deposit and a withdrawal keyword.
	got, _ := DefaultKeywordSets().Classify("Cobro de apuesta ganadora")
	assert.Equal(t, types.VariantWithdrawals, got)
}

func TestClassify_CustomKeywords(t *testing.T) {
	k := KeywordSets{Deposits: []string{"ENTRADA"}, Withdrawals: []string{"Salída", "  "}}

	got, matched := k.Classify("salida de fichas")
	assert.Equal(t, types.VariantWithdrawals, got)
	assert.True(t, matched)

	got, matched = k.Classify("Entrada")
	assert.Equal(t, types.VariantDeposits, got)
	assert.True(t, matched)
}

func TestPartition(t *testing.T) {
	records := []types.OperationRecord{
		{ID: "1", OperationType: "Apuesta"},
		{ID: "2", OperationType: "Retiro"},
		{ID: "3", OperationType: "apuesta deportiva"},
		{ID: "4", OperationType: "Premio"},
		{ID: "5", OperationType: "APUESTA"},
		{ID: "6", OperationType: "Otro"},
	}

	deposits, withdrawals, unmatched := DefaultKeywordSets().Partition(records)

	assert.Equal(t, []string{"1", "3", "5", "6"}, ids(deposits))
	assert.Equal(t, []string{"2", "4"}, ids(withdrawals))
	assert.Equal(t, 1, unmatched)
	assert.Equal(t, len(records), len(deposits)+len(withdrawals))
}

func TestPartition_Empty(t *testing.T) {
	deposits, withdrawals, unmatched := DefaultKeywordSets().Partition(nil)
	assert.Empty(t, deposits)
	assert.Empty(t, withdrawals)
	assert.Zero(t, unmatched)
}

func ids(records []types.OperationRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
