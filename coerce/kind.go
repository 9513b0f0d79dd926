// Package coerce turns loosely typed cell values into canonical Go values
// according to a type identifier.
//
// Identifiers follow the XML Schema names used by tabular data packages
// (xsd:string, xsd:integer, …) plus "json" for structured cells. Each
// identifier maps to a Kind and every Kind has a Func:
//
//	fn := coerce.Resolve("xsd:integer")
//	v, err := fn("1.1e3") // int64(1100), nil
//
// Coercion functions are idempotent: feeding a canonical value back into
// the function of its own kind returns an equal value. Unknown identifiers
// resolve to Identity and never fail.
package coerce

// Kind is the closed set of built-in coercion variants.
type Kind int

const (
	// KindUnknown passes values through unchanged.
	KindUnknown Kind = iota
	KindString
	KindDouble
	KindInteger
	KindDate
	KindDateTime
	KindBoolean
	KindJSON
)

// Type identifiers recognized by ParseKind.
const (
	TypeString   = "xsd:string"
	TypeDouble   = "xsd:double"
	TypeInteger  = "xsd:integer"
	TypeDate     = "xsd:date"
	TypeDateTime = "xsd:datetime"
	TypeBoolean  = "xsd:boolean"
	TypeJSON     = "json"
)

var kindByID = map[string]Kind{
	TypeString:   KindString,
	TypeDouble:   KindDouble,
	TypeInteger:  KindInteger,
	TypeDate:     KindDate,
	TypeDateTime: KindDateTime,
	TypeBoolean:  KindBoolean,
	TypeJSON:     KindJSON,
}

// ParseKind maps a type identifier to its Kind. Matching is exact;
// anything unrecognized yields KindUnknown.
func ParseKind(id string) Kind {
	if k, ok := kindByID[id]; ok {
		return k
	}
	return KindUnknown
}

// String returns the type identifier of k, or "identity" for KindUnknown.
func (k Kind) String() string {
	switch k {
	case KindString:
		return TypeString
	case KindDouble:
		return TypeDouble
	case KindInteger:
		return TypeInteger
	case KindDate:
		return TypeDate
	case KindDateTime:
		return TypeDateTime
	case KindBoolean:
		return TypeBoolean
	case KindJSON:
		return TypeJSON
	default:
		return "identity"
	}
}

// phrase is the noun phrase used in mismatch messages ("is not <phrase>").
func (k Kind) phrase() string {
	switch k {
	case KindString:
		return "a string"
	case KindDouble:
		return "a number"
	case KindInteger:
		return "an integer"
	case KindDate:
		return "an ISO 8601 date"
	case KindDateTime:
		return "an ISO 8601 date-time"
	case KindBoolean:
		return "a boolean"
	case KindJSON:
		return "JSON"
	default:
		return "a value"
	}
}

// Func returns the coercion function for k.
func (k Kind) Func() Func {
	switch k {
	case KindString:
		return String
	case KindDouble:
		return Double
	case KindInteger:
		return Integer
	case KindDate:
		return Date
	case KindDateTime:
		return DateTime
	case KindBoolean:
		return Boolean
	case KindJSON:
		return JSON
	default:
		return Identity
	}
}
