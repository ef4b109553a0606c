package dashboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Formatter renders a metric value for display
type Formatter func(value any) (string, error)

// ErrUnknownFormat is returned by ResolveFormat for unsupported format names
var ErrUnknownFormat = errors.New("unknown value format")

// ResolveFormat returns the formatter for a named format. Names take an
// optional argument after a colon:
//
//	count            12,345
//	number[:places]  12,345.68 (default 2 places)
//	percent[:places] ratio 0.125 -> 12.5% (default 1 place)
//	currency:<ISO>   $1,234.50
//	bps              25 bps
//
// An empty name resolves to a nil formatter.
func ResolveFormat(name string) (Formatter, error) {
	if name == "" {
		return nil, nil
	}
	kind, arg, _ := strings.Cut(name, ":")
	switch kind {
	case "count":
		return NumberFormatter(0), nil
	case "number":
		places, err := parsePlaces(arg, 2)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownFormat, name, err)
		}
		return NumberFormatter(places), nil
	case "percent":
		places, err := parsePlaces(arg, 1)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnknownFormat, name, err)
		}
		return PercentFormatter(places), nil
	case "currency":
		if money.GetCurrency(arg) == nil {
			return nil, fmt.Errorf("%w: %s: unknown currency %q", ErrUnknownFormat, name, arg)
		}
		return CurrencyFormatter(arg), nil
	case "bps":
		return BasisPointsFormatter(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
}

func parsePlaces(arg string, def int) (int, error) {
	if arg == "" {
		return def, nil
	}
	places, err := strconv.Atoi(arg)
	if err != nil || places < 0 || places > 8 {
		return 0, fmt.Errorf("invalid decimal places %q", arg)
	}
	return places, nil
}

// NumberFormatter groups thousands and rounds to a fixed number of places
func NumberFormatter(places int) Formatter {
	f := money.NewFormatter(places, ".", ",", "", "1")
	return func(value any) (string, error) {
		d, err := ToDecimal(value)
		if err != nil {
			return "", err
		}
		return f.Format(d.Shift(int32(places)).Round(0).IntPart()), nil
	}
}

// PercentFormatter renders a ratio as a percentage
func PercentFormatter(places int) Formatter {
	number := NumberFormatter(places)
	return func(value any) (string, error) {
		d, err := ToDecimal(value)
		if err != nil {
			return "", err
		}
		s, err := number(d.Shift(2))
		if err != nil {
			return "", err
		}
		return s + "%", nil
	}
}

// CurrencyFormatter renders an amount in major units with the currency's
// symbol and fraction digits.
func CurrencyFormatter(code string) Formatter {
	return func(value any) (string, error) {
		cur := money.GetCurrency(code)
		if cur == nil {
			return "", fmt.Errorf("unknown currency %q", code)
		}
		d, err := ToDecimal(value)
		if err != nil {
			return "", err
		}
		minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
		return money.New(minor, code).Display(), nil
	}
}

// BasisPointsFormatter renders a value already expressed in basis points
func BasisPointsFormatter() Formatter {
	number := NumberFormatter(0)
	return func(value any) (string, error) {
		s, err := number(value)
		if err != nil {
			return "", err
		}
		return s + " bps", nil
	}
}

// ToDecimal converts a numeric value into a decimal
func ToDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, errors.New("nil decimal")
		}
		return *v, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int8:
		return decimal.NewFromInt(int64(v)), nil
	case int16:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint:
		return decimal.RequireFromString(strconv.FormatUint(uint64(v), 10)), nil
	case uint8:
		return decimal.NewFromInt(int64(v)), nil
	case uint16:
		return decimal.NewFromInt(int64(v)), nil
	case uint32:
		return decimal.NewFromInt(int64(v)), nil
	case uint64:
		return decimal.RequireFromString(strconv.FormatUint(v, 10)), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("not a number: %q", v)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("not a number: %T", value)
}
