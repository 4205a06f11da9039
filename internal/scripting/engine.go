package scripting

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/l1jgo/itemstack/internal/attr"
	"github.com/l1jgo/itemstack/internal/item"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrNoHook is returned when a hook function is not defined by any script.
var ErrNoHook = errors.New("lua hook not defined")

// Engine wraps a single gopher-lua VM running item scripts.
// Single-goroutine access only.
type Engine struct {
	vm  *lua.LState
	env *item.Env
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory: core/ first, then item/. Items created by scripts live in env.
func NewEngine(scriptsDir string, env *item.Env, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, env: env, log: log}
	registerItemType(vm)
	vm.SetGlobal("make_item", vm.NewFunction(e.luaMakeItem))

	for _, sub := range []string{"core", "item"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source, for hooks defined inline.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// HasHook reports whether a global function of that name exists.
func (e *Engine) HasHook(hook string) bool {
	_, ok := e.vm.GetGlobal(hook).(*lua.LFunction)
	return ok
}

// RunItemHook calls the Lua function hook(item, owner). The script sees
// the record through an item handle whose reads and writes are scoped to
// owner. It returns whatever the hook returns, converted to an attribute
// value; nil becomes Null.
func (e *Engine) RunItemHook(hook string, owner item.Owner, rec *item.Record) (attr.Value, error) {
	fn, ok := e.vm.GetGlobal(hook).(*lua.LFunction)
	if !ok {
		return attr.Null(), fmt.Errorf("%w: %s", ErrNoHook, hook)
	}

	handle := newItemHandle(e.vm, owner, rec)
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, handle, lua.LString(owner.OwnerID())); err != nil {
		e.log.Error("lua item hook error", zap.String("hook", hook),
			zap.String("owner", owner.OwnerID()), zap.Error(err))
		return attr.Null(), fmt.Errorf("lua %s: %w", hook, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	v, err := fromLua(result)
	if err != nil {
		e.log.Warn("lua item hook returned unsupported value", zap.String("hook", hook), zap.Error(err))
		return attr.Null(), err
	}
	return v, nil
}

// --- Lua helpers ---

// toLua converts an attribute value. Maps and lists become tables; list
// tables are 1-based.
func toLua(L *lua.LState, v attr.Value) lua.LValue {
	switch v.Kind() {
	case attr.KindBool:
		b, _ := v.AsBool()
		return lua.LBool(b)
	case attr.KindNumber:
		n, _ := v.AsNumber()
		return lua.LNumber(n.Float64())
	case attr.KindString:
		s, _ := v.AsString()
		return lua.LString(s)
	case attr.KindList:
		elems, _ := v.AsList()
		t := L.CreateTable(len(elems), 0)
		for _, el := range elems {
			t.Append(toLua(L, el))
		}
		return t
	case attr.KindMap:
		m, _ := v.AsMap()
		t := L.CreateTable(0, m.Len())
		m.Range(func(k string, el attr.Value) bool {
			t.RawSetString(k, toLua(L, el))
			return true
		})
		return t
	}
	return lua.LNil
}

// fromLua converts a Lua value. Integral numbers become integers. Tables
// whose keys are exactly 1..n become lists; other tables become maps
// with stringified keys, sorted.
func fromLua(lv lua.LValue) (attr.Value, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return attr.Null(), nil
	case lua.LBool:
		return attr.Bool(bool(v)), nil
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return attr.Int(int64(f)), nil
		}
		return attr.Float(f), nil
	case lua.LString:
		return attr.String(string(v)), nil
	case *lua.LTable:
		return tableValue(v)
	case *lua.LUserData:
		if rec, ok := HandleRecord(v); ok {
			return attr.Object(rec.Render()), nil
		}
	}
	return attr.Value{}, fmt.Errorf("%w: lua %s", attr.ErrUnsupportedValueKind, lv.Type())
}

func tableValue(t *lua.LTable) (attr.Value, error) {
	n := t.Len()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })

	if n > 0 && n == count {
		out := make([]attr.Value, 0, n)
		for i := 1; i <= n; i++ {
			v, err := fromLua(t.RawGetInt(i))
			if err != nil {
				return attr.Value{}, err
			}
			out = append(out, v)
		}
		return attr.List(out...), nil
	}

	fields := make(map[string]any, count)
	var ferr error
	t.ForEach(func(k, val lua.LValue) {
		if ferr != nil {
			return
		}
		v, err := fromLua(val)
		if err != nil {
			ferr = err
			return
		}
		fields[k.String()] = v
	})
	if ferr != nil {
		return attr.Value{}, ferr
	}
	return attr.FromNative(fields)
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
