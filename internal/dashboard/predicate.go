package dashboard

import (
	"strings"

	"golang.org/x/text/cases"
)

// Matches decides whether a record is included given a search term over the
// declared search fields and the active filters. An empty search term and an
// empty filter set impose no constraint. A field the record lacks never
// matches.
func Matches(r Record, searchTerm string, searchFields []string, active Filters) bool {
	if r == nil {
		return false
	}
	return matchesFilters(r, active) && matchesSearch(r, searchTerm, searchFields)
}

// matchesFilters requires every active key to equal the record value
func matchesFilters(r Record, active Filters) bool {
	for key, want := range active {
		got, ok := r.Field(key)
		if !ok || !equalValues(got, want) {
			return false
		}
	}
	return true
}

// matchesSearch is a case-insensitive substring match over the search fields.
// A Caser is stateful, so each call folds with its own.
func matchesSearch(r Record, term string, fields []string) bool {
	if term == "" {
		return true
	}
	folder := cases.Fold()
	needle := folder.String(term)
	for _, field := range fields {
		v, ok := r.Field(field)
		if !ok {
			continue
		}
		s, ok := Canonical(v)
		if !ok {
			continue
		}
		if strings.Contains(folder.String(s), needle) {
			return true
		}
	}
	return false
}

// Filter returns the records that match, preserving their order.
func Filter[R Record](records []R, searchTerm string, searchFields []string, active Filters) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if Matches(r, searchTerm, searchFields, active) {
			out = append(out, r)
		}
	}
	return out
}
