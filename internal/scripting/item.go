package scripting

import (
	"github.com/l1jgo/itemstack/internal/attr"
	"github.com/l1jgo/itemstack/internal/item"
	lua "github.com/yuin/gopher-lua"
)

const itemTypeName = "item"

// itemHandle is the Lua view of a record, bound to one owner.
type itemHandle struct {
	rec *item.Record
	ed  *item.Editor
}

var itemMethods = map[string]lua.LGFunction{
	"type":         itemType,
	"quantity":     itemQuantity,
	"set_quantity": itemSetQuantity,
	"get":          itemGet,
	"get_number":   itemGetNumber,
	"get_string":   itemGetString,
	"get_bool":     itemGetBool,
	"put":          itemPut,
	"put_nested":   itemPutNested,
	"remove":       itemRemove,
	"contains":     itemContains,
	"keys":         itemKeys,
	"size":         itemSize,
	"plain":        itemPlain,
}

func registerItemType(L *lua.LState) {
	mt := L.NewTypeMetatable(itemTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), itemMethods))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkItem(L).rec.String()))
		return 1
	}))
}

func newItemHandle(L *lua.LState, owner item.Owner, rec *item.Record) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = &itemHandle{rec: rec, ed: rec.Editor(owner)}
	L.SetMetatable(ud, L.GetTypeMetatable(itemTypeName))
	return ud
}

// HandleRecord returns the record behind an item handle.
func HandleRecord(lv lua.LValue) (*item.Record, bool) {
	ud, ok := lv.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	h, ok := ud.Value.(*itemHandle)
	if !ok {
		return nil, false
	}
	return h.rec, true
}

func checkItem(L *lua.LState) *itemHandle {
	ud := L.CheckUserData(1)
	if h, ok := ud.Value.(*itemHandle); ok {
		return h
	}
	L.ArgError(1, "item expected")
	return nil
}

// luaMakeItem implements make_item{type=..., quantity=..., attributes=..., owner=...}.
func (e *Engine) luaMakeItem(L *lua.LState) int {
	t := L.CheckTable(1)
	qty := 1
	if t.RawGetString("quantity") != lua.LNil {
		qty = lInt(t, "quantity")
	}
	rec := e.env.FromParts(lStr(t, "type"), qty, lStr(t, "attributes"))
	L.Push(newItemHandle(L, item.OwnerID(lStr(t, "owner")), rec))
	return 1
}

func itemType(L *lua.LState) int {
	L.Push(lua.LString(checkItem(L).rec.ItemType()))
	return 1
}

func itemQuantity(L *lua.LState) int {
	L.Push(lua.LNumber(checkItem(L).rec.Quantity()))
	return 1
}

func itemSetQuantity(L *lua.LState) int {
	h := checkItem(L)
	if err := h.rec.SetQuantity(L.CheckInt(2)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// itemGet returns the raw value at key, or the second argument when the
// key is absent.
func itemGet(L *lua.LState) int {
	h := checkItem(L)
	key := L.CheckString(2)
	if !h.ed.Contains(key) {
		L.Push(L.Get(3))
		return 1
	}
	L.Push(toLua(L, item.Get(h.ed, key, attr.Null())))
	return 1
}

func itemGetNumber(L *lua.LState) int {
	h := checkItem(L)
	L.Push(lua.LNumber(item.Get(h.ed, L.CheckString(2), float64(L.OptNumber(3, 0)))))
	return 1
}

func itemGetString(L *lua.LState) int {
	h := checkItem(L)
	L.Push(lua.LString(item.Get(h.ed, L.CheckString(2), L.OptString(3, ""))))
	return 1
}

func itemGetBool(L *lua.LState) int {
	h := checkItem(L)
	L.Push(lua.LBool(item.Get(h.ed, L.CheckString(2), L.OptBool(3, false))))
	return 1
}

func itemPut(L *lua.LState) int {
	h := checkItem(L)
	key := L.CheckString(2)
	v, err := fromLua(L.Get(3))
	if err == nil {
		err = h.ed.Put(key, v)
	}
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// itemPutNested merges a table, or another item, under key.
func itemPutNested(L *lua.LState) int {
	h := checkItem(L)
	key := L.CheckString(2)
	var component any
	if rec, ok := HandleRecord(L.Get(3)); ok {
		component = rec
	} else {
		v, err := fromLua(L.CheckTable(3))
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
		component = v
	}
	if err := h.ed.PutNested(key, component); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func itemRemove(L *lua.LState) int {
	L.Push(lua.LBool(checkItem(L).ed.Remove(L.CheckString(2))))
	return 1
}

func itemContains(L *lua.LState) int {
	L.Push(lua.LBool(checkItem(L).ed.Contains(L.CheckString(2))))
	return 1
}

func itemKeys(L *lua.LState) int {
	keys := checkItem(L).ed.Keys()
	t := L.CreateTable(len(keys), 0)
	for _, k := range keys {
		t.Append(lua.LString(k))
	}
	L.Push(t)
	return 1
}

func itemSize(L *lua.LState) int {
	L.Push(lua.LNumber(checkItem(L).ed.Size()))
	return 1
}

func itemPlain(L *lua.LState) int {
	h := checkItem(L)
	s, err := h.rec.Encoded()
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LString(s))
	return 1
}
