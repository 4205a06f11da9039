package item

import (
	"fmt"
	"sort"

	"github.com/l1jgo/itemstack/internal/attr"
	"go.uber.org/zap"
)

// Renderer is a nested component that can describe itself as an attribute
// map. Record implements it.
type Renderer interface {
	Render() *attr.Map
}

// Editor reads and writes one owner's subtree of a record's attributes,
// custom_data.plugin_components.<owner>. Every call leaves the record in
// plain form with its live item cache dropped.
type Editor struct {
	rec   *Record
	owner string
}

func (e *Editor) Owner() string {
	return e.owner
}

func (e *Editor) path(key string) attr.Path {
	return attr.ForOwner(e.owner, key)
}

// check rejects paths with an empty segment.
func (e *Editor) check(key string) error {
	if e.owner == "" || key == "" {
		return fmt.Errorf("%w: owner %q key %q", ErrEmptySegment, e.owner, key)
	}
	return nil
}

// view returns a private tree for reading.
func (e *Editor) view() *attr.Tree {
	e.rec.ToPlain()
	e.rec.invalidate()
	m, _ := e.rec.Attributes()
	return attr.TreeOf(m)
}

// edit promotes the record to structured form, applies fn and collapses it
// back. Plain data that does not decode is logged and replaced.
func (e *Editor) edit(fn func(t *attr.Tree)) {
	r := e.rec
	switch r.attrs.form {
	case FormPlain:
		if _, err := r.ToStructured(); err != nil {
			r.log().Warn("replacing malformed attribute data",
				zap.String("owner", e.owner), zap.Error(err))
			r.attrs = structuredPayload(nil)
		}
	case FormUnset:
		r.attrs = structuredPayload(nil)
	}
	t := attr.TreeOf(r.attrs.tree)
	fn(t)
	r.attrs = structuredPayload(t.Root())
	r.ToPlain()
	r.invalidate()
}

func (e *Editor) lookup(key string) (attr.Value, bool) {
	if e.check(key) != nil {
		return attr.Value{}, false
	}
	return e.view().Get(e.path(key))
}

// Put stores a primitive, a list or map of primitives, an attr.Value or
// an attr.Valuer. Anything else fails with ErrUnsupportedValueKind and
// the record is not touched, as it is for an empty owner id or key
// (ErrEmptySegment).
func (e *Editor) Put(key string, value any) error {
	if err := e.check(key); err != nil {
		return err
	}
	v, err := attr.FromNative(value)
	if err != nil {
		return fmt.Errorf("put %s.%s: %w", e.owner, key, err)
	}
	v = v.Clone()
	e.edit(func(t *attr.Tree) { t.Set(e.path(key), v) })
	return nil
}

// PutNested merges a nested component under key. Renderers describe
// themselves and attr values are taken as they are; anything else is
// encoded structurally through its yaml form, so exported fields and yaml
// tags decide the layout.
func (e *Editor) PutNested(key string, component any) error {
	if err := e.check(key); err != nil {
		return err
	}
	var v attr.Value
	switch c := component.(type) {
	case Renderer:
		v = attr.Object(c.Render())
	case attr.Value:
		v = c
	default:
		var err error
		if v, err = attr.Encode(component); err != nil {
			return fmt.Errorf("put nested %s.%s: %w", e.owner, key, err)
		}
	}
	e.edit(func(t *attr.Tree) { t.MergeJSONLike(v, e.path(key)) })
	return nil
}

func (e *Editor) Remove(key string) bool {
	if e.check(key) != nil {
		return false
	}
	removed := false
	e.edit(func(t *attr.Tree) { removed = t.Remove(e.path(key)) })
	return removed
}

func (e *Editor) Contains(key string) bool {
	_, ok := e.lookup(key)
	return ok
}

// Keys lists the owner's top-level keys in insertion order.
func (e *Editor) Keys() []string {
	if e.owner == "" {
		return nil
	}
	return e.view().Keys(attr.OwnerRoot(e.owner))
}

func (e *Editor) Size() int {
	if e.owner == "" {
		return 0
	}
	return e.view().Size(attr.OwnerRoot(e.owner))
}

// PutList stores the supported elements of values and silently drops the
// rest. Nothing is written when no element survives or the owner id or
// key is empty.
func PutList[T any](e *Editor, key string, values []T) {
	if e.check(key) != nil {
		return
	}
	out := make([]attr.Value, 0, len(values))
	for _, x := range values {
		v, err := attr.FromNative(x)
		if err != nil {
			continue
		}
		out = append(out, v.Clone())
	}
	if len(out) == 0 {
		return
	}
	list := attr.List(out...)
	e.edit(func(t *attr.Tree) { t.Set(e.path(key), list) })
}

// PutMap stores m with its keys formatted as strings. An empty map is a
// no-op. Values are not filtered: one unsupported value fails the whole
// call with ErrUnsupportedValueKind.
func PutMap[K comparable, V any](e *Editor, key string, m map[K]V) error {
	if err := e.check(key); err != nil {
		return err
	}
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	vals := make(map[string]attr.Value, len(m))
	for k, x := range m {
		v, err := attr.FromNative(x)
		if err != nil {
			return fmt.Errorf("put map %s.%s[%v]: %w", e.owner, key, k, err)
		}
		ks := fmt.Sprint(k)
		keys = append(keys, ks)
		vals[ks] = v.Clone()
	}
	sort.Strings(keys)

	out := attr.NewMap()
	for _, k := range keys {
		out.Set(k, vals[k])
	}
	e.edit(func(t *attr.Tree) { t.Set(e.path(key), attr.Object(out)) })
	return nil
}

// Get returns the value at key converted to T, or def when it is missing
// or cannot be converted.
func Get[T any](e *Editor, key string, def T) T {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	out, ok := attr.Coerce[T](v)
	if !ok {
		return def
	}
	return out
}

// GetList converts each element of the list at key to T, dropping the
// ones that do not convert. def is returned when key is not a list or
// nothing converts.
func GetList[T any](e *Editor, key string, def []T) []T {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	elems, ok := v.AsList()
	if !ok {
		return def
	}
	out := make([]T, 0, len(elems))
	for _, el := range elems {
		if x, ok := attr.Coerce[T](el); ok {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// GetMap is GetList for maps: entries whose key or value does not convert
// are dropped.
func GetMap[K comparable, V any](e *Editor, key string, def map[K]V) map[K]V {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	m, ok := v.AsMap()
	if !ok {
		return def
	}
	out := make(map[K]V, m.Len())
	m.Range(func(k string, el attr.Value) bool {
		kk, ok := attr.CoerceKey[K](k)
		if !ok {
			return true
		}
		if vv, ok := attr.Coerce[V](el); ok {
			out[kk] = vv
		}
		return true
	})
	if len(out) == 0 {
		return def
	}
	return out
}

// GetNested decodes the subtree at key into T. Any failure reports false.
func GetNested[T any](e *Editor, key string) (T, bool) {
	var zero T
	v, ok := e.lookup(key)
	if !ok {
		return zero, false
	}
	out, err := attr.Decode[T](v)
	if err != nil {
		e.rec.log().Debug("nested component does not decode",
			zap.String("owner", e.owner), zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return out, true
}
