package dashboard

import (
	"maps"
	"slices"
)

// Filters is the active filter set: at most one selected value per key.
type Filters map[string]any

// Clone returns an independent copy
func (f Filters) Clone() Filters {
	if f == nil {
		return Filters{}
	}
	return maps.Clone(f)
}

// Get returns the value selected for key
func (f Filters) Get(key string) (any, bool) {
	v, ok := f[key]
	return v, ok
}

// Keys returns the active keys in sorted order
func (f Filters) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// Equal reports whether both sets select the same canonical value per key
func (f Filters) Equal(other Filters) bool {
	if len(f) != len(other) {
		return false
	}
	for k, v := range f {
		ov, ok := other[k]
		if !ok || !equalValues(v, ov) {
			return false
		}
	}
	return true
}
