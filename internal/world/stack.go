package world

import (
	"github.com/l1jgo/itemstack/internal/attr"
	"github.com/l1jgo/itemstack/internal/data"
	"github.com/l1jgo/itemstack/internal/item"
)

// ItemStack is a live item: a number of items of one type sharing the
// same components. A nil Def is the air item.
type ItemStack struct {
	ObjectID   int32
	Def        *data.ItemInfo
	Count      int
	Components *attr.Map
}

// NewItemStack takes ownership of comps.
func NewItemStack(def *data.ItemInfo, count int, comps *attr.Map) *ItemStack {
	if comps == nil {
		comps = attr.NewMap()
	}
	return &ItemStack{ObjectID: NextItemObjID(), Def: def, Count: count, Components: comps}
}

func (s *ItemStack) IsAir() bool {
	return s.Def == nil || s.Count <= 0
}

func (s *ItemStack) TypeKey() item.Identifier {
	if s.Def == nil {
		return item.Air
	}
	return s.Def.ID
}

func (s *ItemStack) Quantity() int {
	return s.Count
}

// Copy keeps the object ID; callers placing the copy in a container
// assign a fresh one.
func (s *ItemStack) Copy() item.LiveItem {
	c := *s
	c.Components = s.Components.Clone()
	return &c
}

// Name is the display name, overridable through the custom_name component.
func (s *ItemStack) Name() string {
	if v, ok := s.Components.Get("custom_name"); ok {
		if name, ok := v.AsString(); ok {
			return name
		}
	}
	if s.Def == nil {
		return "Air"
	}
	return s.Def.Name
}

// Containers bridges records and ItemStacks.
type Containers struct{}

func (Containers) ExtractAttributes(live item.LiveItem) (*attr.Map, bool) {
	s, ok := live.(*ItemStack)
	if !ok || s.Components.Len() == 0 {
		return nil, false
	}
	return s.Components.Clone(), true
}

// BuildLiveItem builds a stack of the given type. A nil attrs gives the
// type's default components.
func (Containers) BuildLiveItem(t item.TypeHandle, quantity int, attrs *attr.Map) item.LiveItem {
	def, ok := t.(*data.ItemInfo)
	if !ok {
		return airStack()
	}
	if attrs == nil {
		attrs = def.Components
	}
	return NewItemStack(def, quantity, attrs.Clone())
}

func (Containers) Empty() item.LiveItem {
	return airStack()
}

func airStack() *ItemStack {
	return &ItemStack{Components: attr.NewMap()}
}
