// Package codec turns attribute trees into the compact strings stored in
// configuration documents and back.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/l1jgo/itemstack/internal/attr"
)

// ErrMalformedAttributeData wraps every decode failure.
var ErrMalformedAttributeData = errors.New("malformed attribute data")

// Codec encodes attribute trees to strings. Decode(Encode(m)) must equal m
// for every tree the attr package can build.
type Codec interface {
	Encode(m *attr.Map) (string, error)
	Decode(s string) (*attr.Map, error)
}

// JSON is the default codec: compact JSON, key order preserved, integers
// and floats kept apart ("5" vs "5.0").
type JSON struct{}

func (JSON) Encode(m *attr.Map) (string, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, attr.Object(m), false); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (JSON) Decode(s string) (*attr.Map, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAttributeData, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedAttributeData)
	}
	v, err := readObject(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAttributeData, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedAttributeData)
	}
	m, _ := v.AsMap()
	return m, nil
}

// Canonical encodes m with keys sorted at every level and numbers written
// by value. Two trees that compare Equal have the same canonical form.
func Canonical(m *attr.Map) []byte {
	var buf bytes.Buffer
	if err := writeValue(&buf, attr.Object(m), true); err != nil {
		// only non-finite floats fail; fall back to the debug form
		return []byte(attr.Object(m).String())
	}
	return buf.Bytes()
}

// canonicalNumber writes n by value, the way attr.Number.Equal compares
// it: 1 and 1.0 give "1", and integers beyond float precision round.
func canonicalNumber(n attr.Number) string {
	f := n.Float64()
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func readValue(dec *json.Decoder, tok json.Token) (attr.Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return readObject(dec)
		case '[':
			return readArray(dec)
		}
		return attr.Value{}, fmt.Errorf("unexpected %q", t)
	case string:
		return attr.String(t), nil
	case bool:
		return attr.Bool(t), nil
	case nil:
		return attr.Null(), nil
	case json.Number:
		n, ok := attr.ParseNumber(t.String())
		if !ok {
			return attr.Value{}, fmt.Errorf("bad number %q", t)
		}
		return attr.NumberValue(n), nil
	}
	return attr.Value{}, fmt.Errorf("unexpected token %v", tok)
}

func readObject(dec *json.Decoder) (attr.Value, error) {
	m := attr.NewMap()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return attr.Value{}, err
		}
		key, ok := kt.(string)
		if !ok {
			return attr.Value{}, fmt.Errorf("object key %v is not a string", kt)
		}
		vt, err := dec.Token()
		if err != nil {
			return attr.Value{}, err
		}
		v, err := readValue(dec, vt)
		if err != nil {
			return attr.Value{}, fmt.Errorf("%s: %w", key, err)
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return attr.Value{}, err
	}
	return attr.Object(m), nil
}

func readArray(dec *json.Decoder) (attr.Value, error) {
	var out []attr.Value
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return attr.Value{}, err
		}
		v, err := readValue(dec, tok)
		if err != nil {
			return attr.Value{}, fmt.Errorf("[%d]: %w", len(out), err)
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return attr.Value{}, err
	}
	return attr.List(out...), nil
}

func writeValue(buf *bytes.Buffer, v attr.Value, sorted bool) error {
	switch v.Kind() {
	case attr.KindNull:
		buf.WriteString("null")
	case attr.KindBool, attr.KindNumber:
		n, ok := v.AsNumber()
		if !ok {
			buf.WriteString(v.String())
			break
		}
		if f := n.Float64(); n.IsFloat() && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return fmt.Errorf("cannot encode %v", f)
		}
		if sorted {
			buf.WriteString(canonicalNumber(n))
		} else {
			buf.WriteString(n.String())
		}
	case attr.KindString:
		s, _ := v.AsString()
		writeString(buf, s)
	case attr.KindList:
		l, _ := v.AsList()
		buf.WriteByte('[')
		for i, e := range l {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, e, sorted); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case attr.KindMap:
		m, _ := v.AsMap()
		keys := m.Keys()
		if sorted {
			sort.Strings(keys)
		}
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			e, _ := m.Get(k)
			if err := writeValue(buf, e, sorted); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encoder terminates every value with a newline
	buf.Truncate(buf.Len() - 1)
}
