package validate

import (
	"math"
	"reflect"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// ValueSet is a read-only-after-build hash set of canonical values.
//
// Membership compares by value: time.Time by instant regardless of
// location, numbers by numeric value regardless of Go type (int64(3) and
// 3.0 are the same member), composite values by their JSON encoding.
type ValueSet struct {
	members map[string]struct{}
}

// NewValueSet returns a set holding values.
func NewValueSet(values ...any) *ValueSet {
	s := &ValueSet{members: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v. The zero ValueSet is ready to use.
func (s *ValueSet) Add(v any) {
	if s.members == nil {
		s.members = make(map[string]struct{})
	}
	s.members[canonicalKey(v)] = struct{}{}
}

// Contains reports whether a value equal to v was added.
func (s *ValueSet) Contains(v any) bool {
	if s == nil {
		return false
	}
	_, ok := s.members[canonicalKey(v)]
	return ok
}

// Len reports the number of distinct members.
func (s *ValueSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// ForeignKeys maps a field name to the set its coerced values must belong to.
type ForeignKeys map[string]*ValueSet

func canonicalKey(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return "s:" + x
	case bool:
		return "b:" + strconv.FormatBool(x)
	case time.Time:
		return "t:" + x.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if x == nil {
			return "null"
		}
		return "t:" + x.UTC().Format(time.RFC3339Nano)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return numberKey(f)
		}
		return "s:" + x.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "n:" + strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "n:" + strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return numberKey(rv.Float())
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "?:" + reflect.TypeOf(v).String()
	}
	return "j:" + string(b)
}

// numberKey gives integral floats the same key as the equal integer.
func numberKey(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return "n:" + strconv.FormatInt(int64(f), 10)
	}
	return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
}
