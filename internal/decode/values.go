package decode

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// DateLayouts are tried in order before falling back to an Excel serial.
var DateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"1/2/06 15:04",
	"1/2/2006 15:04",
	"01/02/2006 15:04:05",
}

// Text returns v as text. Integral numbers print without a fraction, so an
// invoice read as 536365.0 becomes "536365". ok is false for nil.
func Text(v any) (s string, ok bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		return x.String(), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

// NullableText is Text with empty and whitespace-only strings mapped to nil.
func NullableText(v any) *string {
	s, ok := Text(v)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// RawText is Text with only nil and the empty string mapped to nil. Other
// whitespace is kept as read.
func RawText(v any) *string {
	s, ok := Text(v)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// Int parses an integer, accepting integral floats such as "17850.0".
// Anything else, including nil and fractions, yields nil.
func Int(v any) *int64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		n := int64(x)
		return &n
	case int64:
		return &x
	case float64:
		f = x
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return &n
		}
		p, err := x.Float64()
		if err != nil {
			return nil
		}
		f = p
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return &n
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = p
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1e15 {
		return nil
	}
	n := int64(f)
	return &n
}

// Decimal parses a decimal amount.
func Decimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("missing value")
	case decimal.Decimal:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, fmt.Errorf("invalid decimal %v", x)
		}
		return decimal.NewFromFloat(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, fmt.Errorf("missing value")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal %q", s)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported decimal value %T", v)
	}
}

// Timestamp parses an invoice timestamp in UTC. Strings are tried against
// DateLayouts; numbers (or numeric strings) are read as Excel serial dates
// and rounded to the second.
func Timestamp(v any) (time.Time, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("missing value")
	case time.Time:
		return x.UTC(), nil
	case float64:
		return fromSerial(x)
	case int:
		return fromSerial(float64(x))
	case int64:
		return fromSerial(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q", x.String())
		}
		return fromSerial(f)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, fmt.Errorf("missing value")
		}
		for _, layout := range DateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromSerial(f)
		}
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %T", v)
	}
}

func fromSerial(f float64) (time.Time, error) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("invalid excel serial %v", f)
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("excel serial %v: %w", f, err)
	}
	return t.Round(time.Second).UTC(), nil
}
