package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	p := ForOwner("mymod", "level")
	assert.Equal(t, Path{"custom_data", "plugin_components", "mymod", "level"}, p)
	assert.True(t, p.HasPrefix(OwnerRoot("mymod")))
	assert.False(t, p.HasPrefix(OwnerRoot("othermod")))
	assert.Equal(t, "custom_data.plugin_components.mymod.level", p.String())

	parent, leaf := p.Parent()
	assert.Equal(t, "level", leaf)
	assert.True(t, parent.Equal(OwnerRoot("mymod")))

	base := Raw("a")
	ext := base.Append("b")
	assert.Equal(t, Path{"a"}, base)
	assert.Equal(t, Path{"a", "b"}, ext)
	assert.True(t, Raw().IsRoot())
}

func TestTreeSetGet(t *testing.T) {
	tree := NewTree()
	tree.Set(Raw("a", "b", "c"), Int(1))

	v, ok := tree.Get(Raw("a", "b", "c"))
	require.True(t, ok)
	assert.True(t, v.Equal(Int(1)))

	_, ok = tree.Get(Raw("a", "x"))
	assert.False(t, ok)

	// a scalar in the middle of the path ends the walk
	_, ok = tree.Get(Raw("a", "b", "c", "d"))
	assert.False(t, ok)

	// a scalar in the way is replaced by a map on write
	tree.Set(Raw("a", "b", "c", "d"), String("x"))
	v, ok = tree.Get(Raw("a", "b", "c", "d"))
	require.True(t, ok)
	assert.True(t, v.Equal(String("x")))

	root, ok := tree.Get(Raw())
	require.True(t, ok)
	assert.Equal(t, KindMap, root.Kind())
}

func TestTreeSetRoot(t *testing.T) {
	tree := NewTree()
	tree.Set(Raw("a"), Int(1))

	tree.Set(Raw(), Int(5))
	assert.True(t, tree.Contains(Raw("a")))

	m := NewMap()
	m.Set("b", Bool(true))
	tree.Set(Raw(), Object(m))
	assert.False(t, tree.Contains(Raw("a")))
	assert.True(t, tree.Contains(Raw("b")))
}

func TestTreeRemove(t *testing.T) {
	tree := NewTree()
	tree.Set(Raw("a", "b"), Int(1))
	tree.Set(Raw("a", "c"), Int(2))

	assert.True(t, tree.Remove(Raw("a", "b")))
	assert.False(t, tree.Remove(Raw("a", "b")))
	assert.False(t, tree.Remove(Raw("missing", "b")))
	assert.False(t, tree.Remove(Raw("a", "c", "deeper")))
	assert.False(t, tree.Remove(Raw()))
	assert.Equal(t, []string{"c"}, tree.Keys(Raw("a")))
}

func TestTreeKeysAndSize(t *testing.T) {
	tree := NewTree()
	tree.Set(Raw("a", "z"), Int(1))
	tree.Set(Raw("a", "y"), Int(2))
	tree.Set(Raw("a", "z"), Int(3))

	assert.Equal(t, []string{"z", "y"}, tree.Keys(Raw("a")))
	assert.Equal(t, 2, tree.Size(Raw("a")))
	assert.Empty(t, tree.Keys(Raw("a", "z")))
	assert.Equal(t, 0, tree.Size(Raw("a", "z")))
	assert.Equal(t, 0, tree.Size(Raw("nope")))
}

func TestTreeCloneIsDeep(t *testing.T) {
	tree := NewTree()
	tree.Set(Raw("a", "b"), Int(1))
	cp := tree.Clone()
	cp.Set(Raw("a", "b"), Int(2))

	v, _ := tree.Get(Raw("a", "b"))
	assert.True(t, v.Equal(Int(1)))
	assert.False(t, tree.Equal(cp))
}

func TestTreeOverlay(t *testing.T) {
	tree := NewTree()
	tree.Set(Raw("display", "name"), String("base"))
	tree.Set(Raw("display", "lore"), List(String("x")))
	tree.Set(Raw("damage"), Int(0))

	src := NewTree()
	src.Set(Raw("display", "name"), String("custom"))
	src.Set(Raw("enchanted"), Bool(true))

	tree.Overlay(src.Root())

	name, _ := tree.Get(Raw("display", "name"))
	assert.True(t, name.Equal(String("custom")))
	assert.True(t, tree.Contains(Raw("display", "lore")))
	assert.True(t, tree.Contains(Raw("damage")))
	assert.True(t, tree.Contains(Raw("enchanted")))
}

func mustMap(t *testing.T, x map[string]any) Value {
	t.Helper()
	v, err := FromNative(x)
	require.NoError(t, err)
	return v
}

func TestMergeJSONLike(t *testing.T) {
	doc := mustMap(t, map[string]any{
		"name":  "sword",
		"tags":  []any{"a", "b", 3},
		"stats": map[string]any{"atk": 5, "def": nil},
		"grid":  []any{[]any{1, 2}, map[string]any{"x": 1}},
		"mixed": []any{"s", map[string]any{"k": true}},
		"empty": []any{},
	})
	tree := NewTree()
	base := ForOwner("mymod", "item")
	tree.MergeJSONLike(doc, base)

	get := func(segs ...string) Value {
		v, ok := tree.Get(base.Append(segs...))
		require.True(t, ok, "missing %v", segs)
		return v
	}

	assert.True(t, get("name").Equal(String("sword")))
	assert.True(t, get("tags").Equal(List(String("a"), String("b"), Int(3))))
	assert.True(t, get("stats", "atk").Equal(Int(5)))
	assert.False(t, tree.Contains(base.Append("stats", "def")))
	assert.True(t, get("grid", "0").Equal(List(Int(1), Int(2))))
	assert.True(t, get("grid", "1", "x").Equal(Int(1)))
	assert.True(t, get("mixed", "0").Equal(String("s")))
	assert.True(t, get("mixed", "1", "k").Equal(Bool(true)))
	assert.False(t, tree.Contains(base.Append("empty")))
}

func TestMergeJSONLikeIdempotent(t *testing.T) {
	doc := mustMap(t, map[string]any{
		"a":    []any{1, 2, 3},
		"b":    map[string]any{"c": []any{[]any{"x"}, map[string]any{"d": 1.5}}},
		"flag": false,
	})

	once := NewTree()
	once.MergeJSONLike(doc, Raw("root"))

	twice := NewTree()
	twice.MergeJSONLike(doc, Raw("root"))
	twice.MergeJSONLike(doc, Raw("root"))
	assert.True(t, once.Equal(twice))

	// merging the produced output onto itself changes nothing
	produced, _ := once.Get(Raw("root"))
	again := once.Clone()
	again.MergeJSONLike(produced.Clone(), Raw("root"))
	assert.True(t, once.Equal(again))
}

func TestMergeScalarAtBase(t *testing.T) {
	tree := NewTree()
	tree.MergeJSONLike(Int(7), Raw("x"))
	v, ok := tree.Get(Raw("x"))
	require.True(t, ok)
	assert.True(t, v.Equal(Int(7)))
}
