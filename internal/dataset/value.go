package dataset

import (
	"encoding/json"
	"strconv"
	"time"
)

// Kind identifies what a Value holds
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
	// KindRaw holds a nested JSON array or object verbatim
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindRaw:
		return "json"
	default:
		return "unknown"
	}
}

// Value is a single table cell. Numbers keep their source text so that
// monetary amounts can be parsed without float rounding.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
}

// Null returns an empty cell
func Null() Value { return Value{} }

// String returns a string cell
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a numeric cell. raw is the literal as written in the source.
func Number(raw string, f float64) Value { return Value{Kind: KindNumber, Str: raw, Num: f} }

// Float returns a numeric cell formatted from f
func Float(f float64) Value {
	return Number(strconv.FormatFloat(f, 'f', -1, 64), f)
}

// Bool returns a boolean cell
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Time returns a timestamp cell
func Time(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// Raw returns a cell holding nested JSON text
func Raw(raw string) Value { return Value{Kind: KindRaw, Str: raw} }

// IsNull reports whether the cell is empty
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Interface converts the cell into a value encoding/json and yaml.v3 can
// marshal. Times use RFC 3339.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return json.Number(v.Str)
	case KindBool:
		return v.Bool
	case KindTime:
		return v.Time.Format(time.RFC3339)
	case KindRaw:
		return json.RawMessage(v.Str)
	default:
		return nil
	}
}

// Text renders the cell for messages and terminal output
func (v Value) Text() string {
	switch v.Kind {
	case KindString, KindNumber, KindRaw:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return "null"
	}
}
