package models

import (
	"encoding/json"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	// UndefinedValue marks an absent value. Parsed documents never contain it,
	// but callers building values by hand may.
	UndefinedValue ValueKind = iota
	NullValue
	BoolValue
	NumberValue
	StringValue
	ArrayValue
	ObjectValue
)

// String returns the JSON name of the kind.
func (k ValueKind) String() string {
	switch k {
	case NullValue:
		return "null"
	case BoolValue:
		return "boolean"
	case NumberValue:
		return "number"
	case StringValue:
		return "string"
	case ArrayValue:
		return "array"
	case ObjectValue:
		return "object"
	default:
		return "undefined"
	}
}

// Member is a single key/value pair of a JSON object.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value. Exactly one of the payload fields is meaningful,
// selected by Kind. Object members keep their insertion order.
type Value struct {
	Kind    ValueKind
	Bool    bool
	Number  json.Number
	String  string
	Items   []Value
	Members []Member
}

// Undefined returns the absent value.
func Undefined() Value { return Value{Kind: UndefinedValue} }

// Null returns the JSON null value.
func Null() Value { return Value{Kind: NullValue} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: BoolValue, Bool: b} }

// Number wraps a number literal. The literal text is kept verbatim.
func Number(n json.Number) Value { return Value{Kind: NumberValue, Number: n} }

// Int wraps an integer.
func Int(i int64) Value { return Number(json.Number(strconv.FormatInt(i, 10))) }

// Float wraps a float using the shortest representation that round-trips.
func Float(f float64) Value {
	return Number(json.Number(strconv.FormatFloat(f, 'g', -1, 64)))
}

// String wraps a string.
func String(s string) Value { return Value{Kind: StringValue, String: s} }

// Array wraps a list of values.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Kind: ArrayValue, Items: items}
}

// Object wraps an ordered list of members.
func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{Kind: ObjectValue, Members: members}
}

// Field is shorthand for building a Member.
func Field(key string, v Value) Member { return Member{Key: key, Value: v} }

// Len returns the element count of an array or the key count of an object,
// and zero for everything else.
func (v Value) Len() int {
	switch v.Kind {
	case ArrayValue:
		return len(v.Items)
	case ObjectValue:
		return len(v.Members)
	default:
		return 0
	}
}

// Get returns the value stored under key in an object.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != ObjectValue {
		return Value{}, false
	}
	for _, m := range v.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Interface converts the value into the untyped representation produced by
// encoding/json with UseNumber: map[string]any, []any, json.Number, string,
// bool and nil. Undefined converts to nil.
func (v Value) Interface() any {
	switch v.Kind {
	case BoolValue:
		return v.Bool
	case NumberValue:
		return v.Number
	case StringValue:
		return v.String
	case ArrayValue:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = item.Interface()
		}
		return out
	case ObjectValue:
		out := make(map[string]any, len(v.Members))
		for _, m := range v.Members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes the value with object keys in insertion order.
// Undefined encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil)
}

func (v Value) appendJSON(buf []byte) ([]byte, error) {
	switch v.Kind {
	case BoolValue:
		return strconv.AppendBool(buf, v.Bool), nil
	case NumberValue:
		if v.Number == "" {
			return append(buf, '0'), nil
		}
		return append(buf, v.Number...), nil
	case StringValue:
		b, err := json.Marshal(v.String)
		if err != nil {
			return nil, err
		}
		return append(buf, b...), nil
	case ArrayValue:
		buf = append(buf, '[')
		for i, item := range v.Items {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			if buf, err = item.appendJSON(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case ObjectValue:
		buf = append(buf, '{')
		for i, m := range v.Members {
			if i > 0 {
				buf = append(buf, ',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return nil, err
			}
			buf = append(buf, key...)
			buf = append(buf, ':')
			if buf, err = m.Value.appendJSON(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	default:
		return append(buf, "null"...), nil
	}
}
