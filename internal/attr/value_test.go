package attr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type opaque struct{ n int }

type rgb struct{ r, g, b uint8 }

func (c rgb) AttrValue() Value {
	return List(Int(int64(c.r)), Int(int64(c.g)), Int(int64(c.b)))
}

func TestFromNative(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"bool", true, Bool(true)},
		{"int", 5, Int(5)},
		{"uint8", uint8(200), Int(200)},
		{"float32", float32(1.5), Float(1.5)},
		{"string", "x", String("x")},
		{"strings", []string{"a", "b"}, List(String("a"), String("b"))},
		{"any list", []any{1, "a"}, List(Int(1), String("a"))},
		{"valuer", rgb{1, 2, 3}, List(Int(1), Int(2), Int(3))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromNative(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	t.Run("map keys are sorted", func(t *testing.T) {
		got, err := FromNative(map[string]int{"b": 2, "a": 1, "c": 3})
		require.NoError(t, err)
		m, ok := got.AsMap()
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
	})

	t.Run("opaque values are rejected", func(t *testing.T) {
		_, err := FromNative(opaque{1})
		assert.ErrorIs(t, err, ErrUnsupportedValueKind)

		_, err = FromNative([]any{1, opaque{2}})
		assert.ErrorIs(t, err, ErrUnsupportedValueKind)

		_, err = FromNative(map[string]any{"x": make(chan int)})
		assert.ErrorIs(t, err, ErrUnsupportedValueKind)
	})

	t.Run("uint64 beyond int64", func(t *testing.T) {
		got, err := FromNative(uint64(math.MaxInt64))
		require.NoError(t, err)
		assert.True(t, got.Equal(Int(math.MaxInt64)))

		_, err = FromNative(uint64(math.MaxInt64) + 1)
		assert.ErrorIs(t, err, ErrUnsupportedValueKind)
		_, err = FromNative([]any{1, uint64(math.MaxUint64)})
		assert.ErrorIs(t, err, ErrUnsupportedValueKind)
	})
}

func TestValueEqual(t *testing.T) {
	a := NewMap()
	a.Set("x", Int(1))
	a.Set("y", String("s"))
	b := NewMap()
	b.Set("y", String("s"))
	b.Set("x", Float(1))

	assert.True(t, Object(a).Equal(Object(b)))
	assert.False(t, Int(1).Equal(String("1")))
	assert.False(t, List(Int(1)).Equal(List(Int(1), Int(2))))
	assert.True(t, Null().Equal(Value{}))
}

func TestNumberString(t *testing.T) {
	assert.Equal(t, "5", IntNumber(5).String())
	assert.Equal(t, "5.0", FloatNumber(5).String())
	assert.Equal(t, "0.25", FloatNumber(0.25).String())
	assert.Equal(t, "1e+21", FloatNumber(1e21).String())
}

func TestMapOrderAndDelete(t *testing.T) {
	m := NewMap()
	m.Set("c", Int(1))
	m.Set("a", Int(2))
	m.Set("b", Int(3))
	assert.Equal(t, []string{"c", "a", "b"}, m.Keys())

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))
	assert.Equal(t, []string{"c", "b"}, m.Keys())

	var zero Map
	zero.Set("k", Bool(true))
	assert.Equal(t, 1, zero.Len())
}

func TestYAMLRoundTrip(t *testing.T) {
	m := NewMap()
	m.Set("zeta", String("42"))
	m.Set("alpha", Int(42))
	m.Set("ratio", Float(2))
	m.Set("on", Bool(true))
	m.Set("none", Null())
	m.Set("list", List(String("a"), Int(1)))
	inner := NewMap()
	inner.Set("k", String("v"))
	m.Set("inner", Object(inner))

	out, err := yaml.Marshal(m)
	require.NoError(t, err)

	var back Map
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.True(t, m.Equal(&back))
	assert.Equal(t, m.Keys(), back.Keys())

	s, _ := back.Get("zeta")
	assert.Equal(t, KindString, s.Kind())
	r, _ := back.Get("ratio")
	n, _ := r.AsNumber()
	assert.True(t, n.IsFloat())
}

func TestEncodeDecodeStructural(t *testing.T) {
	type stats struct {
		Attack int      `yaml:"attack"`
		Tags   []string `yaml:"tags"`
	}
	v, err := Encode(stats{Attack: 3, Tags: []string{"x"}})
	require.NoError(t, err)

	m, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"attack", "tags"}, m.Keys())

	back, err := Decode[stats](v)
	require.NoError(t, err)
	assert.Equal(t, stats{Attack: 3, Tags: []string{"x"}}, back)
}
