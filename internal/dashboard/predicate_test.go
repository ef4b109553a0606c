package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMatches_SearchIsCaseInsensitive(t *testing.T) {
	r := Row{"code": "Abc123"}
	for _, term := range []string{"abc", "ABC", "Abc", "c12", "ABC123"} {
		assert.True(t, Matches(r, term, []string{"code"}, nil), term)
	}
	assert.False(t, Matches(r, "abd", []string{"code"}, nil))
}

func TestMatches_SearchFoldsUnicode(t *testing.T) {
	r := Row{"name": "Banque Générale"}
	assert.True(t, Matches(r, "GÉNÉRALE", []string{"name"}, nil))
}

func TestMatches_EmptySearchImposesNoConstraint(t *testing.T) {
	rows := []Row{
		{"code": "Abc123", "status": "Settled"},
		{"code": "", "status": "Rejected"},
		{"status": "Pending"},
	}
	filters := []Filters{nil, {}, {"status": "Settled"}}
	fields := [][]string{nil, {"code"}, {"code", "missing"}}

	for _, r := range rows {
		for _, f := range filters {
			for _, sf := range fields {
				assert.Equal(t, matchesFilters(r, f), Matches(r, "", sf, f))
			}
		}
	}
}

func TestMatches_SearchNeedsOneDeclaredField(t *testing.T) {
	r := Row{"reference": "STL-1", "status": "Settled"}
	assert.True(t, Matches(r, "stl", []string{"status", "reference"}, nil))
	assert.False(t, Matches(r, "stl", []string{"status"}, nil), "undeclared fields are not searched")
	assert.False(t, Matches(r, "stl", nil, nil))
}

func TestMatches_FiltersRequireEveryKey(t *testing.T) {
	r := Row{"status": "Settled", "currency": "USD"}
	assert.True(t, Matches(r, "", nil, Filters{"status": "Settled"}))
	assert.True(t, Matches(r, "", nil, Filters{"status": "Settled", "currency": "USD"}))
	assert.False(t, Matches(r, "", nil, Filters{"status": "Settled", "currency": "EUR"}))
}

func TestMatches_MissingFieldDoesNotMatch(t *testing.T) {
	r := Row{"status": "Settled"}
	assert.False(t, Matches(r, "", nil, Filters{"venue": "RTGS"}))
	assert.False(t, Matches(r, "x", []string{"venue"}, nil))
	assert.False(t, Matches(Row{"status": nil}, "", nil, Filters{"status": "Settled"}))
	assert.False(t, Matches(nil, "", nil, nil))
}

func TestMatches_EqualityOnCanonicalForm(t *testing.T) {
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	r := Row{
		"tenor":      91,
		"yield":      4.25,
		"amount":     decimal.RequireFromString("1500000.50"),
		"value_date": day,
		"active":     true,
	}
	assert.True(t, Matches(r, "", nil, Filters{"tenor": "91"}))
	assert.True(t, Matches(r, "", nil, Filters{"tenor": 91.0}))
	assert.True(t, Matches(r, "", nil, Filters{"yield": "4.25"}))
	assert.True(t, Matches(r, "", nil, Filters{"amount": "1500000.5"}))
	assert.True(t, Matches(r, "", nil, Filters{"value_date": "2026-10-16"}))
	assert.True(t, Matches(r, "", nil, Filters{"active": "true"}))
	assert.False(t, Matches(r, "", nil, Filters{"tenor": "091"}))
}

func TestFilter_PreservesOrder(t *testing.T) {
	rows := []Row{
		{"id": 1, "status": "Settled"},
		{"id": 2, "status": "Rejected"},
		{"id": 3, "status": "Settled"},
		{"id": 4, "status": "Settled"},
	}
	out := Filter(rows, "", nil, Filters{"status": "Settled"})
	assert.Equal(t, []int{1, 3, 4}, ids(out))
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"nil", nil, "", false},
		{"string", "x", "x", true},
		{"int", 42, "42", true},
		{"float", 1.50, "1.5", true},
		{"float32", float32(0.1), "0.1", true},
		{"decimal", decimal.RequireFromString("2.50"), "2.5", true},
		{"date", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), "2026-01-02", true},
		{"timestamp", time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC), "2026-01-02T09:30:00Z", true},
		{"zero time", time.Time{}, "", false},
		{"bool", false, "false", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Canonical(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
