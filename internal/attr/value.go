// Package attr implements the attribute tree carried by serialized items:
// a closed Value union, insertion-ordered maps, path addressing, the
// JSON-like merge used for nested components, and best-effort coercion
// of stored values to caller-requested Go types.
//
// Nothing in this package is safe for concurrent mutation. A tree is
// owned by a single caller at a time, the same way the record that
// holds it is.
package attr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrUnsupportedValueKind is returned when a Go value has no Value form.
var ErrUnsupportedValueKind = errors.New("unsupported value kind")

// Kind is the tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Number is a numeric scalar that remembers whether it was written as an
// integer, so re-encoding "5" never turns into "5.0".
type Number struct {
	i     int64
	f     float64
	float bool
}

func IntNumber(i int64) Number { return Number{i: i} }
func FloatNumber(f float64) Number { return Number{f: f, float: true} }

func (n Number) IsFloat() bool { return n.float }

// Int64 returns the number as an int64 when it is integral and in range.
func (n Number) Int64() (int64, bool) {
	if !n.float {
		return n.i, true
	}
	if math.IsNaN(n.f) || math.IsInf(n.f, 0) || n.f != math.Trunc(n.f) {
		return 0, false
	}
	if n.f < math.MinInt64 || n.f >= math.MaxInt64 {
		return 0, false
	}
	return int64(n.f), true
}

func (n Number) Float64() float64 {
	if n.float {
		return n.f
	}
	return float64(n.i)
}

func (n Number) Equal(o Number) bool {
	if !n.float && !o.float {
		return n.i == o.i
	}
	return n.Float64() == o.Float64()
}

// String renders the number the way the codecs write it. Integral floats
// keep a trailing ".0".
func (n Number) String() string {
	if !n.float {
		return strconv.FormatInt(n.i, 10)
	}
	s := strconv.FormatFloat(n.f, 'g', -1, 64)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' || c == 'N' || c == 'I' {
			return s
		}
	}
	return s + ".0"
}

// Value is a node of an attribute tree. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    Number
	s    string
	list []Value
	m    *Map
}

// Valuer is implemented by data types that know their own Value form.
type Valuer interface {
	AttrValue() Value
}

func Null() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Int(i int64) Value { return Value{kind: KindNumber, n: IntNumber(i)} }
func Float(f float64) Value { return Value{kind: KindNumber, n: FloatNumber(f)} }
func NumberValue(n Number) Value { return Value{kind: KindNumber, n: n} }
func String(s string) Value { return Value{kind: KindString, s: s} }

// List copies vs into a new list value.
func List(vs ...Value) Value {
	l := make([]Value, len(vs))
	copy(l, vs)
	return Value{kind: KindList, list: l}
}

// Object wraps m as a map value. m is shared, not copied; a nil map
// becomes an empty one.
func Object(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsContainer() bool {
	return v.kind == KindList || v.kind == KindMap
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (Number, bool) {
	return v.n, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsList returns the list elements. The slice is a shallow copy.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]Value, len(v.list))
	copy(out, v.list)
	return out, true
}

// AsMap returns the live map held by v.
func (v Value) AsMap() (*Map, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		l := make([]Value, len(v.list))
		for i, e := range v.list {
			l[i] = e.Clone()
		}
		return Value{kind: KindList, list: l}
	case KindMap:
		return Value{kind: KindMap, m: v.m.Clone()}
	}
	return v
}

// Equal compares by content. Map key order is ignored; numbers compare
// numerically.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n.Equal(o.n)
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(o.m)
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.n.String()
	case KindString:
		return strconv.Quote(v.s)
	}
	return fmt.Sprint(v.Native())
}

// Native converts v to plain Go values: nil, bool, int64, float64, string,
// []any and map[string]any.
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.n.float {
			return v.n.f
		}
		return v.n.i
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Native()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		v.m.Range(func(k string, e Value) bool {
			out[k] = e.Native()
			return true
		})
		return out
	}
	return nil
}

// FromNative converts an allow-listed Go value. Anything outside the list
// fails with ErrUnsupportedValueKind.
func FromNative(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Map:
		return Object(t), nil
	case Valuer:
		return t.AttrValue(), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return fromUint(uint64(t))
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return fromUint(t)
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case Number:
		return NumberValue(t), nil
	case string:
		return String(t), nil
	case []Value:
		return List(t...), nil
	case []any:
		return listOf(t)
	case []string:
		return listOf(t)
	case []int:
		return listOf(t)
	case []int64:
		return listOf(t)
	case []float64:
		return listOf(t)
	case []bool:
		return listOf(t)
	case map[string]any:
		return mapOf(t)
	case map[string]string:
		return mapOf(t)
	case map[string]int:
		return mapOf(t)
	case map[string]float64:
		return mapOf(t)
	case map[string]bool:
		return mapOf(t)
	}
	return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValueKind, x)
}

// fromUint rejects values above MaxInt64; as floats they would not
// survive a round trip.
func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: uint64 %d overflows int64", ErrUnsupportedValueKind, u)
	}
	return Int(int64(u)), nil
}

func listOf[T any](xs []T) (Value, error) {
	out := make([]Value, 0, len(xs))
	for _, x := range xs {
		v, err := FromNative(x)
		if err != nil {
			return Value{}, err
		}
		out = append(out, v)
	}
	return Value{kind: KindList, list: out}, nil
}

// mapOf sorts keys so that Go map iteration order never leaks into the
// encoded form.
func mapOf[T any](in map[string]T) (Value, error) {
	m := NewMap()
	for _, k := range sortedKeys(in) {
		v, err := FromNative(in[k])
		if err != nil {
			return Value{}, err
		}
		m.Set(k, v)
	}
	return Object(m), nil
}
