package item

import (
	"testing"

	"github.com/l1jgo/itemstack/internal/attr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mymod    = OwnerID("mymod")
	othermod = OwnerID("othermod")
)

func TestEditorScenario(t *testing.T) {
	env, _ := testEnv(t)
	r := env.FromParts("stone", 3, "")

	ed := r.Editor(mymod)
	require.NoError(t, ed.Put("level", 5))

	assert.Equal(t, 5, Get(ed, "level", 0))
	assert.Equal(t, []string{"level"}, ed.Keys())
	assert.Equal(t, 1, ed.Size())
	assert.Equal(t, 0, r.Editor(othermod).Size())
	assert.Equal(t, `{"custom_data":{"plugin_components":{"mymod":{"level":5}}}}`, r.AttributesAsPlainString())
}

func TestEditorNamespacing(t *testing.T) {
	env, _ := testEnv(t)
	r := env.FromParts("stone", 1, "")

	require.NoError(t, r.Editor(mymod).Put("color", "red"))
	require.NoError(t, r.Editor(othermod).Put("color", "blue"))

	assert.Equal(t, "red", Get(r.Editor(mymod), "color", ""))
	assert.Equal(t, "blue", Get(r.Editor(othermod), "color", ""))

	assert.True(t, r.Editor(mymod).Remove("color"))
	assert.False(t, r.Editor(mymod).Contains("color"))
	assert.True(t, r.Editor(othermod).Contains("color"))
	assert.False(t, r.Editor(mymod).Remove("color"))
}

func TestEditorRejectsEmptySegments(t *testing.T) {
	env, _ := testEnv(t)
	r := env.FromParts("stone", 1, "")

	assert.ErrorIs(t, r.Editor(OwnerID("")).Put("level", 1), ErrEmptySegment)
	assert.ErrorIs(t, r.Editor(mymod).Put("", 1), ErrEmptySegment)
	assert.ErrorIs(t, r.Editor(mymod).PutNested("", map[string]any{"a": 1}), ErrEmptySegment)
	assert.ErrorIs(t, PutMap(r.Editor(OwnerID("")), "m", map[string]int{"a": 1}), ErrEmptySegment)
	PutList(r.Editor(mymod), "", []int{1, 2})
	assert.Equal(t, FormUnset, r.Form())

	require.NoError(t, r.Editor(mymod).Put("level", 1))
	assert.False(t, r.Editor(mymod).Contains(""))
	assert.False(t, r.Editor(mymod).Remove(""))
	assert.Equal(t, 7, Get(r.Editor(mymod), "", 7))
	assert.Nil(t, r.Editor(OwnerID("")).Keys())
	assert.Equal(t, 0, r.Editor(OwnerID("")).Size())
	assert.Equal(t, 1, r.Editor(mymod).Size())
}

func TestEditorCollapsesAfterEveryCall(t *testing.T) {
	env, _ := testEnv(t)
	r, err := env.FromParts("stone", 1, `{"a":1}`).ToStructured()
	require.NoError(t, err)

	ed := r.Editor(mymod)
	assert.False(t, ed.Contains("x"))
	assert.Equal(t, FormPlain, r.Form())

	_, err = r.ToStructured()
	require.NoError(t, err)
	require.NoError(t, ed.Put("x", true))
	assert.Equal(t, FormPlain, r.Form())

	live := r.Materialize().(*fakeItem)
	cd, ok := attr.TreeOf(live.attrs).Get(attr.ForOwner("mymod", "x"))
	require.True(t, ok)
	assert.True(t, cd.Equal(attr.Bool(true)))

	require.NoError(t, ed.Put("x", false))
	live = r.Materialize().(*fakeItem)
	cd, _ = attr.TreeOf(live.attrs).Get(attr.ForOwner("mymod", "x"))
	assert.True(t, cd.Equal(attr.Bool(false)))
}

type opaque struct{ ch chan int }

func TestPutRejectsOpaque(t *testing.T) {
	env, _ := testEnv(t)
	r := env.FromParts("stone", 1, `{"a":1}`)

	err := r.Editor(mymod).Put("bad", opaque{})
	assert.ErrorIs(t, err, ErrUnsupportedValueKind)
	assert.Equal(t, `{"a":1}`, r.AttributesAsPlainString())

	err = r.Editor(mymod).Put("bad", []any{1, opaque{}})
	assert.ErrorIs(t, err, ErrUnsupportedValueKind)
}

func TestPutMalformedPayloadStartsOver(t *testing.T) {
	env, _ := testEnv(t)
	r := env.FromParts("stone", 1, "{broken")

	assert.Equal(t, 0, Get(r.Editor(mymod), "k", 0))
	assert.Equal(t, "{broken", r.AttributesAsPlainString())

	require.NoError(t, r.Editor(mymod).Put("k", 1))
	assert.Equal(t, 1, Get(r.Editor(mymod), "k", 0))
}

func TestGetCoercion(t *testing.T) {
	env, _ := testEnv(t)
	ed := env.FromParts("stone", 1, "").Editor(mymod)
	require.NoError(t, ed.Put("num", "42"))
	require.NoError(t, ed.Put("word", "abc"))
	require.NoError(t, ed.Put("flag", "true"))
	require.NoError(t, ed.Put("ratio", 2.5))

	assert.Equal(t, 42, Get(ed, "num", 0))
	assert.Equal(t, 0, Get(ed, "word", 0))
	assert.Equal(t, int64(7), Get(ed, "missing", int64(7)))
	assert.True(t, Get(ed, "flag", false))
	assert.Equal(t, "2.5", Get(ed, "ratio", ""))
	assert.Equal(t, 2.5, Get(ed, "ratio", 0.0))
	assert.Equal(t, -1, Get(ed, "ratio", -1))
}

func TestListsAndMaps(t *testing.T) {
	env, _ := testEnv(t)
	ed := env.FromParts("stone", 1, "").Editor(mymod)

	require.NoError(t, ed.Put("mixed", []any{1, "x", 2}))
	assert.Equal(t, []int{1, 2}, GetList(ed, "mixed", []int{}))
	assert.Equal(t, []int{9}, GetList(ed, "missing", []int{9}))

	require.NoError(t, ed.Put("words", []string{"a", "b"}))
	assert.Equal(t, []int{}, GetList(ed, "words", []int{}))

	PutList(ed, "filtered", []any{"a", opaque{}, 3})
	assert.Equal(t, []string{"a", "3"}, GetList(ed, "filtered", []string(nil)))

	PutList(ed, "nothing", []any{opaque{}})
	assert.False(t, ed.Contains("nothing"))

	require.NoError(t, PutMap(ed, "scores", map[int]string{2: "20", 1: "10", 3: "x"}))
	assert.Equal(t, map[int]int{1: 10, 2: 20}, GetMap(ed, "scores", map[int]int(nil)))
	assert.Equal(t, map[string]string{"1": "10", "2": "20", "3": "x"}, GetMap(ed, "scores", map[string]string(nil)))

	require.NoError(t, PutMap(ed, "empty", map[string]int{}))
	assert.False(t, ed.Contains("empty"))

	err := PutMap(ed, "bad", map[string]any{"a": opaque{}})
	assert.ErrorIs(t, err, ErrUnsupportedValueKind)
	assert.False(t, ed.Contains("bad"))

	def := map[string]int{"d": 1}
	assert.Equal(t, def, GetMap(ed, "mixed", def))
}

type enchantment struct {
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
}

type loadout struct {
	Enchantments []enchantment `yaml:"enchantments"`
	Owner        string        `yaml:"owner"`
}

func TestNested(t *testing.T) {
	env, _ := testEnv(t)
	ed := env.FromParts("stone", 1, "").Editor(mymod)

	in := loadout{Owner: "steve", Enchantments: []enchantment{{"sharpness", 5}, {"mending", 1}}}
	require.NoError(t, ed.PutNested("loadout", in))

	// Container elements expand under their index.
	stored, ok := Get(ed, "loadout", attr.Value{}).AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"enchantments", "owner"}, stored.Keys())
	ench, _ := stored.Get("enchantments")
	byIndex, ok := ench.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"0", "1"}, byIndex.Keys())

	out, ok := GetNested[enchantment](ed, "missing")
	assert.False(t, ok)
	assert.Equal(t, enchantment{}, out)

	got, ok := GetNested[map[string]any](ed, "loadout")
	require.True(t, ok)
	assert.Equal(t, "steve", got["owner"])

	_, ok = GetNested[[]int](ed, "loadout")
	assert.False(t, ok)
}

func TestNestedRecord(t *testing.T) {
	env, _ := testEnv(t)
	SetDefault(env)
	t.Cleanup(func() { SetDefault(NewEnv(nil, nil, nil, nil)) })

	inner := env.FromParts("stone", 2, `{"a":1}`)
	outer := env.FromParts("stone", 1, "")
	require.NoError(t, outer.Editor(mymod).PutNested("bundle", inner))

	back, ok := GetNested[*Record](outer.Editor(mymod), "bundle")
	require.True(t, ok)
	assert.True(t, inner.Equal(back))
}
