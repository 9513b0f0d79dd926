package coerce

import (
	"math"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Func coerces a single value into the canonical representation of its
// kind. A non-nil error is always a *TypeMismatchError for built-ins.
type Func func(v any) (any, error)

// MissingNumber is the sentinel token read as a missing xsd:double.
const MissingNumber = "NA"

// Identity returns v unchanged.
func Identity(v any) (any, error) { return v, nil }

// String accepts strings only.
func String(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return nil, mismatch(KindString, v)
}

// Double parses numeric text into a float64. The MissingNumber token and
// nil both yield nil; numbers of any Go numeric type are widened.
func Double(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if x == MissingNumber {
			return nil, nil
		}
		if f, ok := parseNumber(x); ok {
			return f, nil
		}
	case json.Number:
		if f, ok := parseNumber(x.String()); ok {
			return f, nil
		}
	default:
		if f, ok := asFloat(v); ok {
			return f, nil
		}
	}
	return nil, mismatch(KindDouble, v)
}

// Integer accepts anything Double accepts whose value has no fractional
// part, and returns it as an int64. "1.1e3" and "1.0" are integers,
// "0.1" and "NA" are not.
func Integer(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x), nil
		}
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), nil
		}
	case nil:
		// Double maps nil to a missing number; an integer must be present.
	default:
		d, err := Double(v)
		if err != nil || d == nil {
			break
		}
		f := d.(float64)
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(math.Round(f)), nil
		}
	}
	return nil, mismatch(KindInteger, v)
}

// Date accepts a calendar date (2013-11-13), read as UTC midnight, or any
// date-time accepted by DateTime as well as a zone-less date-time read as
// UTC. time.Time values pass through.
func Date(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x != nil {
			return *x, nil
		}
	case string:
		if t, ok := parseTime(x, dateLayouts); ok {
			return t, nil
		}
	}
	return nil, mismatch(KindDate, v)
}

// DateTime accepts an ISO 8601 date-time carrying a UTC offset or Z.
// time.Time values pass through.
func DateTime(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x != nil {
			return *x, nil
		}
	case string:
		if t, ok := parseTime(x, dateTimeLayouts); ok {
			return t, nil
		}
	}
	return nil, mismatch(KindDateTime, v)
}

// Boolean accepts "true"/"1" and "false"/"0". bool values pass through.
func Boolean(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch x {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	}
	return nil, mismatch(KindBoolean, v)
}

// JSON decodes JSON text. Values that are not strings are assumed to be
// decoded already and pass through.
func JSON(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, mismatch(KindJSON, v)
	}
	return out, nil
}

//
// Unexported helpers
//

// Layouts are tried in order. time.Parse accepts an optional fractional
// second after the seconds field even when the layout omits it.
var (
	dateTimeLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
	}
	dateLayouts = []string{
		time.DateOnly,
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
)

// parseTime parses s with the first matching layout. Layouts without a
// zone produce UTC instants.
func parseTime(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumber parses decimal or exponent notation into a finite float64.
// Hex floats, digit separators, Inf and NaN are rejected even though
// strconv would accept some of them.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
		case c == '.', c == 'e', c == 'E', c == '+', c == '-':
		default:
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// asFloat widens Go numeric values to a finite float64.
func asFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
