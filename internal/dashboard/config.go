package dashboard

import (
	"errors"
	"fmt"
)

// ViewMode selects which representation a page renders
type ViewMode string

const (
	ViewTable  ViewMode = "table"
	ViewVisual ViewMode = "visual"
)

// ErrInvalidViewMode is returned for view modes other than table and visual
var ErrInvalidViewMode = errors.New("invalid view mode")

// Valid reports whether m is one of the two view modes
func (m ViewMode) Valid() bool {
	return m == ViewTable || m == ViewVisual
}

// ParseViewMode converts a string into a ViewMode
func ParseViewMode(s string) (ViewMode, error) {
	m := ViewMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidViewMode, s)
	}
	return m, nil
}

// FilterOption is one selectable value of a discrete filter
type FilterOption struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FilterField declares a field that supports discrete-value filtering
type FilterField struct {
	Key     string         `json:"key" yaml:"key"`
	Label   string         `json:"label" yaml:"label"`
	Options []FilterOption `json:"options" yaml:"options"`
}

// Values returns the option values in declaration order
func (f FilterField) Values() []any {
	values := make([]any, len(f.Options))
	for i, o := range f.Options {
		values[i] = o.Value
	}
	return values
}

// Config is the declarative contract a page supplies to its filter store
type Config struct {
	DefaultView  ViewMode      `json:"default_view" yaml:"default_view"`
	SearchFields []string      `json:"search_fields" yaml:"search_fields"`
	Filters      []FilterField `json:"filters" yaml:"filters"`
}

// Filter returns the descriptor declared for key
func (c Config) Filter(key string) (FilterField, bool) {
	for _, f := range c.Filters {
		if f.Key == key {
			return f, true
		}
	}
	return FilterField{}, false
}

// Declares reports whether key is a declared filter
func (c Config) Declares(key string) bool {
	_, ok := c.Filter(key)
	return ok
}

// Validate cross-checks the configuration against the record schema
func (c Config) Validate(schema Schema) *ValidationResult {
	result := NewValidationResult()

	if c.DefaultView == "" {
		result.AddError("default_view", CodeRequired, "Default view is required")
	} else if !c.DefaultView.Valid() {
		result.AddError("default_view", CodeInvalid, fmt.Sprintf("Default view must be '%s' or '%s', got '%s'", ViewTable, ViewVisual, c.DefaultView))
	}

	for i, field := range c.SearchFields {
		fieldPath := fmt.Sprintf("search_fields[%d]", i)
		if field == "" {
			result.AddError(fieldPath, CodeRequired, "Search field name is required")
			continue
		}
		if !schema.Has(field) {
			result.AddError(fieldPath, CodeUnknownField, fmt.Sprintf("Field '%s' not found in record schema", field))
		}
	}

	seen := make(map[string]bool, len(c.Filters))
	for i, filter := range c.Filters {
		c.validateFilter(filter, schema, i, seen, result)
	}

	return result
}

// validateFilter validates a single filter descriptor
func (c Config) validateFilter(filter FilterField, schema Schema, index int, seen map[string]bool, result *ValidationResult) {
	fieldPath := fmt.Sprintf("filters[%d]", index)

	if filter.Key == "" {
		result.AddError(fieldPath+".key", CodeRequired, "Filter key is required")
		return
	}
	if seen[filter.Key] {
		result.AddError(fieldPath+".key", CodeDuplicate, fmt.Sprintf("Filter '%s' is declared more than once", filter.Key))
	}
	seen[filter.Key] = true

	if !schema.Has(filter.Key) {
		result.AddError(fieldPath+".key", CodeUnknownField, fmt.Sprintf("Field '%s' not found in record schema", filter.Key))
	}

	if len(filter.Options) == 0 {
		result.AddError(fieldPath+".options", CodeNoOptions, fmt.Sprintf("Filter '%s' has no options", filter.Key))
		return
	}
	for j, opt := range filter.Options {
		if _, ok := Canonical(opt.Value); !ok {
			result.AddError(fmt.Sprintf("%s.options[%d].value", fieldPath, j), CodeRequired, "Option value is required")
		}
	}
}
