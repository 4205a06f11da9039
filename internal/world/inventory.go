package world

import (
	"sync/atomic"

	"github.com/l1jgo/itemstack/internal/attr"
	"github.com/l1jgo/itemstack/internal/data"
	"github.com/l1jgo/itemstack/internal/item"
)

const MaxInventorySize = 36

// itemObjIDCounter generates unique item object IDs.
var itemObjIDCounter atomic.Int32

func init() {
	itemObjIDCounter.Store(500_000_000)
}

// NextItemObjID returns a unique object ID for an item instance.
func NextItemObjID() int32 {
	return itemObjIDCounter.Add(1)
}

// Inventory holds a holder's in-memory item stacks.
// Accessed only from the owning goroutine.
type Inventory struct {
	Items []*ItemStack
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{
		Items: make([]*ItemStack, 0, 16),
	}
}

// FindByType returns the first stack of the given type.
func (inv *Inventory) FindByType(id item.Identifier) *ItemStack {
	for _, it := range inv.Items {
		if it.TypeKey() == id {
			return it
		}
	}
	return nil
}

// FindByObjectID returns the stack with the given object ID.
func (inv *Inventory) FindByObjectID(objectID int32) *ItemStack {
	for _, it := range inv.Items {
		if it.ObjectID == objectID {
			return it
		}
	}
	return nil
}

// Size returns the number of slots used.
func (inv *Inventory) Size() int {
	return len(inv.Items)
}

// IsFull returns true if inventory is at max capacity.
func (inv *Inventory) IsFull() bool {
	return len(inv.Items) >= MaxInventorySize
}

// AddItem merges count items into existing stacks with the same type and
// components, then opens new slots for the rest. It returns how many
// items did not fit.
func (inv *Inventory) AddItem(def *data.ItemInfo, count int, comps *attr.Map) int {
	maxStack := max(def.MaxStack, 1)
	for _, it := range inv.Items {
		if count == 0 {
			return 0
		}
		if it.Def != def || !it.Components.Equal(comps) {
			continue
		}
		room := maxStack - it.Count
		if room <= 0 {
			continue
		}
		n := min(room, count)
		it.Count += n
		count -= n
	}
	for count > 0 && !inv.IsFull() {
		n := min(maxStack, count)
		inv.Items = append(inv.Items, NewItemStack(def, n, comps.Clone()))
		count -= n
	}
	return count
}

// RemoveItem removes count from a stack or removes the stack entirely.
// Returns true if the slot was freed.
func (inv *Inventory) RemoveItem(objectID int32, count int) (removed bool) {
	for i, it := range inv.Items {
		if it.ObjectID == objectID {
			if it.Count > count {
				it.Count -= count
				return false
			}
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
			return true
		}
	}
	return false
}

// TotalWeight returns the carried weight in display units: each stack
// weighs max(count * weight / 1000, 1).
func (inv *Inventory) TotalWeight() int32 {
	var total int32
	for _, it := range inv.Items {
		if it.Def.Weight == 0 {
			continue
		}
		w := int32(it.Count) * it.Def.Weight / 1000
		if w < 1 {
			w = 1
		}
		total += w
	}
	return total
}

// Snapshot captures every stack as a record.
func (inv *Inventory) Snapshot(env *item.Env) []*item.Record {
	out := make([]*item.Record, 0, len(inv.Items))
	for _, it := range inv.Items {
		out = append(out, env.FromLiveItem(it))
	}
	return out
}

// Restore replaces the contents with the records' live items. Records
// that materialise as air are skipped.
func (inv *Inventory) Restore(records []*item.Record) {
	inv.Items = inv.Items[:0]
	for _, r := range records {
		st, ok := r.Materialize().(*ItemStack)
		if !ok || st.IsAir() || inv.IsFull() {
			continue
		}
		st.ObjectID = NextItemObjID()
		inv.Items = append(inv.Items, st)
	}
}
