package dashboard

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AggregateFunction names an aggregation over a field
type AggregateFunction string

const (
	AggregateCount AggregateFunction = "count"
	AggregateSum   AggregateFunction = "sum"
	AggregateAvg   AggregateFunction = "avg"
	AggregateMin   AggregateFunction = "min"
	AggregateMax   AggregateFunction = "max"
)

// Valid reports whether f is a supported aggregate function
func (f AggregateFunction) Valid() bool {
	switch f {
	case AggregateCount, AggregateSum, AggregateAvg, AggregateMin, AggregateMax:
		return true
	}
	return false
}

// StatSpec defines one summary value computed over the filtered records.
// Where restricts the records counted, using filter equality semantics.
type StatSpec struct {
	Key   string            `json:"key" yaml:"key"`
	Func  AggregateFunction `json:"func" yaml:"func"`
	Field string            `json:"field,omitempty" yaml:"field,omitempty"`
	Where Filters           `json:"where,omitempty" yaml:"where,omitempty"`
}

// Stats maps a stat key to its computed value
type Stats map[string]any

// Aggregate computes every stat over records. Counts are ints; the other
// functions yield decimals and are absent when no record has a numeric value.
func Aggregate[R Record](records []R, specs []StatSpec) Stats {
	stats := make(Stats, len(specs))
	for _, spec := range specs {
		if v, ok := aggregateOne(records, spec); ok {
			stats[spec.Key] = v
		}
	}
	return stats
}

func aggregateOne[R Record](records []R, spec StatSpec) (any, bool) {
	count := 0
	sum := decimal.Zero
	var lo, hi decimal.Decimal
	numeric := 0

	for _, r := range records {
		if !matchesFilters(r, spec.Where) {
			continue
		}
		count++
		if spec.Func == AggregateCount {
			continue
		}
		raw, ok := r.Field(spec.Field)
		if !ok {
			continue
		}
		d, err := ToDecimal(raw)
		if err != nil {
			continue
		}
		if numeric == 0 || d.LessThan(lo) {
			lo = d
		}
		if numeric == 0 || d.GreaterThan(hi) {
			hi = d
		}
		sum = sum.Add(d)
		numeric++
	}

	switch spec.Func {
	case AggregateCount:
		return count, true
	case AggregateSum:
		return sum, true
	}
	if numeric == 0 {
		return nil, false
	}
	switch spec.Func {
	case AggregateAvg:
		return sum.Div(decimal.NewFromInt(int64(numeric))), true
	case AggregateMin:
		return lo, true
	case AggregateMax:
		return hi, true
	}
	return nil, false
}

// validateStats checks stat definitions against the record schema
func validateStats(specs []StatSpec, schema Schema, result *ValidationResult) map[string]bool {
	keys := make(map[string]bool, len(specs))
	for i, spec := range specs {
		fieldPath := fmt.Sprintf("stats[%d]", i)
		if spec.Key == "" {
			result.AddError(fieldPath+".key", CodeRequired, "Stat key is required")
		} else if keys[spec.Key] {
			result.AddError(fieldPath+".key", CodeDuplicate, fmt.Sprintf("Stat '%s' is defined more than once", spec.Key))
		} else {
			keys[spec.Key] = true
		}

		if !spec.Func.Valid() {
			result.AddError(fieldPath+".func", CodeInvalid, fmt.Sprintf("Invalid aggregate function: %s", spec.Func))
		} else if spec.Func != AggregateCount {
			if spec.Field == "" {
				result.AddError(fieldPath+".field", CodeRequired, fmt.Sprintf("Field is required for %s", spec.Func))
			} else if !schema.Has(spec.Field) {
				result.AddError(fieldPath+".field", CodeUnknownField, fmt.Sprintf("Field '%s' not found in record schema", spec.Field))
			}
		}

		for _, key := range spec.Where.Keys() {
			if !schema.Has(key) {
				result.AddError(fieldPath+".where."+key, CodeUnknownField, fmt.Sprintf("Field '%s' not found in record schema", key))
			}
		}
	}
	return keys
}
