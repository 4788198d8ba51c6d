package converter

import (
	"strings"

	"github.com/ginjaninja78/avisos/internal/sanitize"
	"github.com/ginjaninja78/avisos/internal/types"
)

// KeywordSets classifies gaming operations into deposits and withdrawals by
// substring match on the operation type. Keywords are matched case and
// accent insensitively. Withdrawal keywords are tested first; records that
// match neither set are deposits.
type KeywordSets struct {
	Deposits    []string
	Withdrawals []string
}

// DefaultKeywordSets returns the keyword sets used for gaming reports.
func DefaultKeywordSets() KeywordSets {
	return KeywordSets{
		Deposits:    []string{"apuesta", "deposito", "compra", "carga", "ingreso", "abono"},
		Withdrawals: []string{"retiro", "premio", "cobro", "egreso", "reembolso"},
	}
}

// normalized returns a copy with every keyword folded.
func (k KeywordSets) normalized() KeywordSets {
	fold := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, kw := range in {
			if f := sanitize.Fold(kw); f != "" {
				out = append(out, f)
			}
		}
		return out
	}
	return KeywordSets{Deposits: fold(k.Deposits), Withdrawals: fold(k.Withdrawals)}
}

// Classify returns the partition operationType belongs to and whether any
// keyword matched. Unmatched values classify as deposits.
func (k KeywordSets) Classify(operationType string) (types.Variant, bool) {
	return k.normalized().classify(sanitize.Fold(operationType))
}

func (k KeywordSets) classify(text string) (types.Variant, bool) {
	if text == "" {
		return types.VariantDeposits, false
	}
	for _, kw := range k.Withdrawals {
		if strings.Contains(text, kw) {
			return types.VariantWithdrawals, true
		}
	}
	for _, kw := range k.Deposits {
		if strings.Contains(text, kw) {
			return types.VariantDeposits, true
		}
	}
	return types.VariantDeposits, false
}

// Partition splits records into deposits and withdrawals, preserving input
// order within each partition. Every record lands in exactly one partition.
// unmatched counts the records that defaulted to deposits.
func (k KeywordSets) Partition(records []types.OperationRecord) (deposits, withdrawals []types.OperationRecord, unmatched int) {
	n := k.normalized()
	for _, r := range records {
		variant, matched := n.classify(sanitize.Fold(r.OperationType))
		if !matched {
			unmatched++
		}
		if variant == types.VariantWithdrawals {
			withdrawals = append(withdrawals, r)
			continue
		}
		deposits = append(deposits, r)
	}
	return deposits, withdrawals, unmatched
}
