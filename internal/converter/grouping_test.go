package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/avisos/internal/types"
)

func TestGroupByPerson_FirstSeenOrder(t *testing.T) {
	records := []types.OperationRecord{
		{ID: "a1", CounterpartyTaxID: "BBB010101BB1"},
		{ID: "b1", CounterpartyTaxID: "AAA010101AA1"},
		{ID: "a2", CounterpartyTaxID: "bbb-010101-bb1"},
		{ID: "b2", CounterpartyTaxID: " AAA010101AA1 "},
	}

	groups := GroupByPerson(records)

	require.Len(t, groups, 2)
	assert.Equal(t, "BBB010101BB1", groups[0].Key)
	assert.Equal(t, []string{"a1", "a2"}, ids(groups[0].Records))
	assert.Equal(t, "AAA010101AA1", groups[1].Key)
	assert.Equal(t, []string{"b1", "b2"}, ids(groups[1].Records))
}

func TestGroupByPerson_SingleTaxID(t *testing.T) {
	records := make([]types.OperationRecord, 5)
	for i := range records {
		records[i] = types.OperationRecord{CounterpartyTaxID: "PEGJ800101AB1"}
	}

	groups := GroupByPerson(records)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Records, 5)
}

func TestGroupByPerson_MissingTaxID(t *testing.T) {
	records := []types.OperationRecord{
		{ID: "x", RowNumber: 4},
		{ID: "y", RowNumber: 9, CounterpartyTaxID: "---"},
		{ID: "z"},
	}

	groups := GroupByPerson(records)

	require.Len(t, groups, 3)
	assert.Equal(t, "SIN_RFC_1", groups[0].Key)
	assert.Equal(t, "SIN_RFC_2", groups[1].Key)
	assert.Equal(t, "SIN_RFC_3", groups[2].Key)
}

func TestGroupByPerson_MissingTaxIDAcrossExports(t *testing.T) {
	// Two exports of the same activity both carry a row 5.
	records := []types.OperationRecord{
		{ID: "a5", RowNumber: 5, CounterpartyName: "Ana Lopez"},
		{ID: "b5", RowNumber: 5, CounterpartyName: "Bruno Diaz"},
		{ID: "a3", RowNumber: 3},
		{ID: "c0"},
		{ID: "c4", RowNumber: 4},
	}

	groups := GroupByPerson(records)

	require.Len(t, groups, 5)
	for i, g := range groups {
		require.Len(t, g.Records, 1, "group %s", g.Key)
		assert.Equal(t, records[i].ID, g.Records[0].ID)
	}
	assert.Equal(t, "Bruno Diaz", groups[1].Records[0].CounterpartyName)
}

func TestGroupByPerson_NoRecordDropped(t *testing.T) {
	records := []types.OperationRecord{
		{CounterpartyTaxID: "AAA010101AA1"},
		{},
		{CounterpartyTaxID: "AAA010101AA1"},
		{},
	}

	total := 0
	for _, g := range GroupByPerson(records) {
		total += len(g.Records)
	}
	assert.Equal(t, len(records), total)
	assert.Empty(t, GroupByPerson(nil))
}
