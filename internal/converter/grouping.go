package converter

import (
	"fmt"

	"github.com/ginjaninja78/avisos/internal/sanitize"
	"github.com/ginjaninja78/avisos/internal/types"
)

// fallbackKeyPrefix marks groups of records that carry no usable tax id.
const fallbackKeyPrefix = "SIN_RFC_"

// GroupByPerson partitions records by counterparty tax id.
//
// GROUPING LOGIC:
//
//	Records are grouped by their sanitized counterparty tax id. Groups are
//	returned in order of first occurrence and keep their records in input
//	order, so the same input always yields the same document.
//
//	A record whose tax id sanitizes to nothing gets its own group keyed
//	"SIN_RFC_<n>", n being its 1-based position in records. Row numbers are
//	not used: records merged from several exports repeat them. No record is
//	ever dropped.
func GroupByPerson(records []types.OperationRecord) []types.PersonGroup {
	groups := make(map[string]*types.PersonGroup)
	groupOrder := []string{} // Maintain order of first occurrence

	for i, record := range records {
		key := groupKey(record, i)
		g, exists := groups[key]
		if !exists {
			g = &types.PersonGroup{Key: key}
			groups[key] = g
			groupOrder = append(groupOrder, key)
		}
		g.Records = append(g.Records, record)
	}

	out := make([]types.PersonGroup, 0, len(groupOrder))
	for _, key := range groupOrder {
		out = append(out, *groups[key])
	}
	return out
}

func groupKey(record types.OperationRecord, index int) string {
	if key := sanitize.SanitizeTaxID(record.CounterpartyTaxID); key != "" {
		return key
	}
	return fmt.Sprintf("%s%d", fallbackKeyPrefix, index+1)
}
