package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		ok      bool
		isFloat bool
	}{
		{"42", true, false},
		{"-7", true, false},
		{"+3", true, false},
		{"1.5", true, true},
		{".5", true, true},
		{"5.", true, true},
		{"1e3", true, true},
		{"-2.5E-3", true, true},
		{"99999999999999999999", true, true},
		{"abc", false, false},
		{"0x10", false, false},
		{"1.2.3", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.isFloat, n.IsFloat())
			}
		})
	}
}

func TestCoerceNativeFastPath(t *testing.T) {
	s, ok := Coerce[string](String("x"))
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	i, ok := Coerce[int](Int(5))
	assert.True(t, ok)
	assert.Equal(t, 5, i)

	f, ok := Coerce[float64](Int(5))
	assert.True(t, ok)
	assert.Equal(t, 5.0, f)

	b, ok := Coerce[bool](Bool(true))
	assert.True(t, ok)
	assert.True(t, b)
}

func TestCoerceNumericFromString(t *testing.T) {
	i, ok := Coerce[int](String("42"))
	assert.True(t, ok)
	assert.Equal(t, 42, i)

	f, ok := Coerce[float32](String("1.5"))
	assert.True(t, ok)
	assert.Equal(t, float32(1.5), f)

	_, ok = Coerce[int](String("abc"))
	assert.False(t, ok)

	_, ok = Coerce[int](String("4.5"))
	assert.False(t, ok)

	i8, ok := Coerce[int8](String("300"))
	assert.False(t, ok)
	assert.Zero(t, i8)
}

func TestCoerceRanges(t *testing.T) {
	_, ok := Coerce[uint8](Int(-1))
	assert.False(t, ok)

	u, ok := Coerce[uint16](Int(65535))
	assert.True(t, ok)
	assert.Equal(t, uint16(65535), u)

	i, ok := Coerce[int64](Float(3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)

	_, ok = Coerce[int](Float(3.25))
	assert.False(t, ok)
}

func TestCoerceReencode(t *testing.T) {
	s, ok := Coerce[string](Int(7))
	assert.True(t, ok)
	assert.Equal(t, "7", s)

	s, ok = Coerce[string](Bool(false))
	assert.True(t, ok)
	assert.Equal(t, "false", s)

	b, ok := Coerce[bool](String("true"))
	assert.True(t, ok)
	assert.True(t, b)

	b, ok = Coerce[bool](Int(1))
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = Coerce[bool](Int(2))
	assert.False(t, ok)

	_, ok = Coerce[string](List(Int(1)))
	assert.False(t, ok)

	_, ok = Coerce[int](Null())
	assert.False(t, ok)
}

func TestCoerceStructural(t *testing.T) {
	type point struct {
		X int `yaml:"x"`
		Y int `yaml:"y"`
	}
	m := NewMap()
	m.Set("x", Int(1))
	m.Set("y", Int(2))

	p, ok := Coerce[point](Object(m))
	assert.True(t, ok)
	assert.Equal(t, point{1, 2}, p)

	ints, ok := Coerce[[]int](List(Int(1), Int(2)))
	assert.True(t, ok)
	assert.Equal(t, []int{1, 2}, ints)

	_, ok = Coerce[point](String("nope"))
	assert.False(t, ok)

	cp, ok := Coerce[*Map](Object(m))
	assert.True(t, ok)
	cp.Set("x", Int(9))
	x, _ := m.Get("x")
	assert.True(t, x.Equal(Int(1)))
}

func TestCoerceKey(t *testing.T) {
	k, ok := CoerceKey[int]("12")
	assert.True(t, ok)
	assert.Equal(t, 12, k)

	s, ok := CoerceKey[string]("name")
	assert.True(t, ok)
	assert.Equal(t, "name", s)

	_, ok = CoerceKey[int]("name")
	assert.False(t, ok)
}
