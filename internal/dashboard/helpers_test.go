package dashboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func settlementRows() []Row {
	return []Row{
		{"id": 1, "status": "Settled", "reference": "STL-0001"},
		{"id": 2, "status": "Rejected", "reference": "STL-0002"},
		{"id": 3, "status": "Settled", "reference": "STL-0003"},
	}
}

func settlementSchema() Schema {
	return NewSchema(
		FieldSchema{Name: "id", Type: FieldTypeNumber, Label: "ID"},
		FieldSchema{Name: "status", Type: FieldTypeString, Label: "Status"},
		FieldSchema{Name: "reference", Type: FieldTypeString, Label: "Reference"},
	)
}

func settlementConfig() Config {
	return Config{
		DefaultView:  ViewVisual,
		SearchFields: []string{"status"},
		Filters: []FilterField{
			{Key: "status", Label: "Status", Options: []FilterOption{
				{Value: "Settled", Label: "Settled"},
				{Value: "Rejected", Label: "Rejected"},
			}},
		},
	}
}

func newSettlementStore(t *testing.T, opts ...Option) *Store[Row] {
	t.Helper()
	store, err := NewStore(settlementRows(), settlementConfig(), settlementSchema(), opts...)
	require.NoError(t, err)
	return store
}

func ids(rows []Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r["id"].(int)
	}
	return out
}
