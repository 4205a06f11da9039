package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/itemstack/internal/attr"
	"github.com/l1jgo/itemstack/internal/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const enchantScript = `
function on_enchant(it, owner)
  local level = it:get_number("level", 0) + 1
  it:put("level", level)
  it:put("tags", {"shiny", "cursed"})
  it:put("by", owner)
  it:put_nested("stats", {damage = 7, speed = 1.5})
  return {level = level, keys = it:keys()}
end

function describe(it)
  return it:type() .. " x" .. it:quantity() .. " " .. it:get_string("by", "?")
end

function bundle(it)
  local gem = make_item{type = "minecraft:emerald", quantity = 2, owner = "mymod"}
  gem:put("cut", "brilliant")
  it:put_nested("gem", gem)
  return gem
end

function broken(it)
  error("boom")
end

function opaque(it)
  it:put("fn", function() end)
end
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "item"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "item", "enchant.lua"), []byte(enchantScript), 0o644))

	e, err := NewEngine(dir, item.NewEnv(nil, nil, nil, nil), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestRunItemHook(t *testing.T) {
	e := newTestEngine(t)
	rec := item.NewEnv(nil, nil, nil, nil).FromParts("minecraft:diamond_sword", 1, "")
	owner := item.OwnerID("mymod")

	out, err := e.RunItemHook("on_enchant", owner, rec)
	require.NoError(t, err)
	m, ok := out.AsMap()
	require.True(t, ok)
	level, _ := m.Get("level")
	assert.True(t, level.Equal(attr.Int(1)))

	_, err = e.RunItemHook("on_enchant", owner, rec)
	require.NoError(t, err)

	ed := rec.Editor(owner)
	assert.Equal(t, 2, item.Get(ed, "level", 0))
	assert.Equal(t, []string{"shiny", "cursed"}, item.GetList(ed, "tags", []string(nil)))
	assert.Equal(t, "mymod", item.Get(ed, "by", ""))
	stats := item.GetMap(ed, "stats", map[string]float64(nil))
	assert.Equal(t, map[string]float64{"damage": 7, "speed": 1.5}, stats)
	assert.Equal(t, item.FormPlain, rec.Form())
	assert.Equal(t, 0, rec.Editor(item.OwnerID("othermod")).Size())

	desc, err := e.RunItemHook("describe", owner, rec)
	require.NoError(t, err)
	assert.True(t, desc.Equal(attr.String("minecraft:diamond_sword x1 mymod")))
}

func TestMakeItemAndNestedRecord(t *testing.T) {
	e := newTestEngine(t)
	rec := item.NewEnv(nil, nil, nil, nil).FromParts("minecraft:bundle", 1, "")

	out, err := e.RunItemHook("bundle", item.OwnerID("mymod"), rec)
	require.NoError(t, err)
	m, ok := out.AsMap()
	require.True(t, ok)
	itemType, _ := m.Get("ItemType")
	assert.True(t, itemType.Equal(attr.String("minecraft:emerald")))

	gem, ok := item.GetNested[*item.Record](rec.Editor(item.OwnerID("mymod")), "gem")
	require.True(t, ok)
	assert.Equal(t, 2, gem.Quantity())
	assert.Equal(t, "brilliant", item.Get(gem.Editor(item.OwnerID("mymod")), "cut", ""))
}

func TestRunItemHookErrors(t *testing.T) {
	e := newTestEngine(t)
	rec := item.NewEnv(nil, nil, nil, nil).FromParts("minecraft:stone", 1, "")
	owner := item.OwnerID("mymod")

	_, err := e.RunItemHook("missing", owner, rec)
	assert.ErrorIs(t, err, ErrNoHook)
	assert.False(t, e.HasHook("missing"))
	assert.True(t, e.HasHook("broken"))

	_, err = e.RunItemHook("broken", owner, rec)
	assert.Error(t, err)

	_, err = e.RunItemHook("opaque", owner, rec)
	assert.Error(t, err)
	assert.Equal(t, item.FormUnset, rec.Form())
}

func TestLoadString(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.LoadString(`function double(it) it:set_quantity(it:quantity() * 2) end`))

	rec := item.NewEnv(nil, nil, nil, nil).FromParts("minecraft:stone", 3, "")
	_, err := e.RunItemHook("double", item.OwnerID("mymod"), rec)
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Quantity())

	assert.Error(t, e.LoadString("this is not lua"))
}
