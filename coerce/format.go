package coerce

import (
	"fmt"
	"math"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// FormatValue renders v the way it appears in validation messages.
//
// Strings are used verbatim and nil renders as "null". A time.Time at UTC
// midnight renders as a plain date (2013-11-13), any other instant as
// RFC 3339 with fractional seconds. Composite values render as JSON.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case json.Number:
		return x.String()
	case time.Time:
		return formatTime(x)
	case *time.Time:
		if x == nil {
			return "null"
		}
		return formatTime(*x)
	case fmt.Stringer:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// formatFloat prints plain decimals for everyday magnitudes and switches
// to exponent notation for very large or very small values.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-7 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatTime(t time.Time) string {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}
