package attr

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber parses an optionally signed decimal literal with optional
// fraction and exponent. Literals without fraction or exponent that fit
// in an int64 stay integers.
func ParseNumber(s string) (Number, bool) {
	s = strings.TrimSpace(s)
	if !numberLiteral.MatchString(s) {
		return Number{}, false
	}
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntNumber(i), true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, false
	}
	return FloatNumber(f), true
}

// Coerce converts v to T on a best-effort basis:
//
//  1. v already has T's kind: returned as is (numbers are range-checked);
//  2. T is numeric and v is a numeric string: parsed;
//  3. scalar re-encodes (anything scalar to string, "true"/1 to bool), then
//     a structural decode of v's document form into T.
//
// The second result is false when nothing applies; callers fall back to
// their own default.
func Coerce[T any](v Value) (T, bool) {
	if out, ok := native[T](v); ok {
		return out, true
	}
	if s, ok := v.AsString(); ok {
		if n, ok := ParseNumber(s); ok {
			if out, ok := fromNumber[T](n); ok {
				return out, true
			}
		}
	}
	if out, ok := reencode[T](v); ok {
		return out, true
	}
	if v.IsNull() || isScalar[T]() {
		var zero T
		return zero, false
	}
	out, err := Decode[T](v)
	return out, err == nil
}

// isScalar reports whether steps 1-3 already had the final word on T.
func isScalar[T any]() bool {
	var zero T
	switch any(zero).(type) {
	case bool, string, Number, float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// CoerceKey converts a map key to K.
func CoerceKey[K comparable](key string) (K, bool) {
	return Coerce[K](String(key))
}

func native[T any](v Value) (T, bool) {
	var out T
	ok := false
	switch p := any(&out).(type) {
	case *Value:
		*p, ok = v, true
	case *any:
		*p, ok = v.Native(), true
	case *bool:
		*p, ok = v.AsBool()
	case *string:
		*p, ok = v.AsString()
	case *[]Value:
		*p, ok = v.AsList()
	case *[]any:
		if v.Kind() == KindList {
			*p, ok = v.Native().([]any)
		}
	case *map[string]any:
		if v.Kind() == KindMap {
			*p, ok = v.Native().(map[string]any)
		}
	case **Map:
		if m, isMap := v.AsMap(); isMap {
			*p, ok = m.Clone(), true
		}
	default:
		if n, isNum := v.AsNumber(); isNum {
			return fromNumber[T](n)
		}
	}
	return out, ok
}

func fromNumber[T any](n Number) (T, bool) {
	var out T
	ok := false
	switch p := any(&out).(type) {
	case *Number:
		*p, ok = n, true
	case *float64:
		*p, ok = n.Float64(), true
	case *float32:
		f := n.Float64()
		if ok = math.Abs(f) <= math.MaxFloat32 || math.IsInf(f, 0) || math.IsNaN(f); ok {
			*p = float32(f)
		}
	case *int:
		var i int64
		if i, ok = intIn(n, math.MinInt, math.MaxInt); ok {
			*p = int(i)
		}
	case *int8:
		var i int64
		if i, ok = intIn(n, math.MinInt8, math.MaxInt8); ok {
			*p = int8(i)
		}
	case *int16:
		var i int64
		if i, ok = intIn(n, math.MinInt16, math.MaxInt16); ok {
			*p = int16(i)
		}
	case *int32:
		var i int64
		if i, ok = intIn(n, math.MinInt32, math.MaxInt32); ok {
			*p = int32(i)
		}
	case *int64:
		*p, ok = n.Int64()
	case *uint:
		var i int64
		if i, ok = intIn(n, 0, math.MaxInt64); ok {
			*p = uint(i)
		}
	case *uint8:
		var i int64
		if i, ok = intIn(n, 0, math.MaxUint8); ok {
			*p = uint8(i)
		}
	case *uint16:
		var i int64
		if i, ok = intIn(n, 0, math.MaxUint16); ok {
			*p = uint16(i)
		}
	case *uint32:
		var i int64
		if i, ok = intIn(n, 0, math.MaxUint32); ok {
			*p = uint32(i)
		}
	case *uint64:
		var i int64
		if i, ok = intIn(n, 0, math.MaxInt64); ok {
			*p = uint64(i)
		}
	}
	return out, ok
}

func intIn(n Number, lo, hi int64) (int64, bool) {
	i, ok := n.Int64()
	if !ok || i < lo || i > hi {
		return 0, false
	}
	return i, true
}

func reencode[T any](v Value) (T, bool) {
	var out T
	ok := false
	switch p := any(&out).(type) {
	case *string:
		switch v.Kind() {
		case KindBool, KindNumber:
			*p, ok = v.String(), true
		}
	case *bool:
		switch v.Kind() {
		case KindString:
			b, err := strconv.ParseBool(strings.TrimSpace(v.s))
			*p, ok = b, err == nil
		case KindNumber:
			if i, isInt := v.n.Int64(); isInt && (i == 0 || i == 1) {
				*p, ok = i == 1, true
			}
		}
	}
	return out, ok
}
