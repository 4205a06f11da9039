package world

import (
	"sync/atomic"

	"github.com/l1jgo/itemstack/internal/attr"
	"github.com/l1jgo/itemstack/internal/data"
	"github.com/l1jgo/itemstack/internal/item"
)

// blockIDCounter generates unique object IDs for placed blocks.
// Starts at 700_000_000 to avoid collision with item IDs.
var blockIDCounter atomic.Int32

func init() {
	blockIDCounter.Store(700_000_000)
}

// NextBlockID returns a unique object ID for a placed block.
func NextBlockID() int32 {
	return blockIDCounter.Add(1)
}

// PlacedBlock is a block in the world. Only definitions in the block
// category have an item form.
type PlacedBlock struct {
	ID      int32
	Def     *data.ItemInfo
	X, Y, Z int32
	Attrs   *attr.Map // block entity data, e.g. a chest's lock
}

func place(s *ItemStack, x, y, z int32) *PlacedBlock {
	return &PlacedBlock{ID: NextBlockID(), Def: s.Def, X: x, Y: y, Z: z, Attrs: s.Components.Clone()}
}

// PlaceBlock takes one item from the stack and places it at x, y, z with
// the stack's components. It fails for stacks whose type is not a block.
func (inv *Inventory) PlaceBlock(objectID int32, x, y, z int32) (*PlacedBlock, bool) {
	st := inv.FindByObjectID(objectID)
	if st == nil || st.IsAir() || st.Def.Category != data.CategoryBlock {
		return nil, false
	}
	b := place(st, x, y, z)
	inv.RemoveItem(objectID, 1)
	return b, true
}

// PickUp breaks b back into an item through its record form and adds it
// to the inventory. It returns how many items did not fit.
func (inv *Inventory) PickUp(env *item.Env, b *PlacedBlock) int {
	st, ok := env.FromBlock(b).Materialize().(*ItemStack)
	if !ok || st.IsAir() {
		return 0
	}
	return inv.AddItem(st.Def, st.Count, st.Components)
}

func (b *PlacedBlock) ItemForm() (item.TypeHandle, bool) {
	if b.Def == nil || b.Def.Category != data.CategoryBlock {
		return nil, false
	}
	return b.Def, true
}

func (b *PlacedBlock) Components() (*attr.Map, bool) {
	if b.Attrs.Len() == 0 {
		return nil, false
	}
	return b.Attrs.Clone(), true
}
