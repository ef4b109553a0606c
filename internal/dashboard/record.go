package dashboard

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row of page data. Field returns the value stored under key
// and whether the record has that attribute at all.
type Record interface {
	Field(key string) (any, bool)
}

// Row is a Record backed by a map, for pages without a typed record shape.
type Row map[string]any

// Field implements Record
func (r Row) Field(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// Canonical returns the string form of a value used for filter equality and
// search matching. The boolean is false for nil values, which never match.
func Canonical(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.FormatInt(int64(val), 10), true
	case int8:
		return strconv.FormatInt(int64(val), 10), true
	case int16:
		return strconv.FormatInt(int64(val), 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint8:
		return strconv.FormatUint(uint64(val), 10), true
	case uint16:
		return strconv.FormatUint(uint64(val), 10), true
	case uint32:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case decimal.Decimal:
		return val.String(), true
	case *decimal.Decimal:
		if val == nil {
			return "", false
		}
		return val.String(), true
	case time.Time:
		if val.IsZero() {
			return "", false
		}
		return formatTime(val), true
	case *time.Time:
		if val == nil || val.IsZero() {
			return "", false
		}
		return formatTime(*val), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

// formatTime renders calendar dates without a clock component so that a
// value date compares equal to its "2006-01-02" option value.
func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// equalValues reports whether two values have the same canonical form.
func equalValues(a, b any) bool {
	as, ok := Canonical(a)
	if !ok {
		return false
	}
	bs, ok := Canonical(b)
	if !ok {
		return false
	}
	return as == bs
}
