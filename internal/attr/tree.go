package attr

// Tree is a mutable attribute tree rooted at a Map. Values returned by Get
// share structure with the tree; clone them before mutating independently.
type Tree struct {
	root *Map
}

func NewTree() *Tree {
	return &Tree{root: NewMap()}
}

// TreeOf wraps m without copying it. A nil m starts an empty tree.
func TreeOf(m *Map) *Tree {
	if m == nil {
		m = NewMap()
	}
	return &Tree{root: m}
}

func (t *Tree) Root() *Map {
	return t.root
}

func (t *Tree) Empty() bool {
	return t.root.Len() == 0
}

// Get returns the value at p. It reports false when a segment is missing
// or a non-map node is reached before p is exhausted.
func (t *Tree) Get(p Path) (Value, bool) {
	cur := Object(t.root)
	for _, seg := range p {
		m, ok := cur.AsMap()
		if !ok {
			return Value{}, false
		}
		if cur, ok = m.Get(seg); !ok {
			return Value{}, false
		}
	}
	return cur, true
}

func (t *Tree) Contains(p Path) bool {
	_, ok := t.Get(p)
	return ok
}

// Set writes v at p, creating intermediate maps and replacing any non-map
// node in the way. Setting the root replaces the tree when v is a map and
// is ignored otherwise.
func (t *Tree) Set(p Path, v Value) {
	if p.IsRoot() {
		if m, ok := v.AsMap(); ok {
			t.root = m
		}
		return
	}
	parent, leaf := p.Parent()
	t.ensure(parent).Set(leaf, v)
}

// ensure returns the map at p, creating it as needed.
func (t *Tree) ensure(p Path) *Map {
	cur := t.root
	for _, seg := range p {
		next, ok := cur.Get(seg)
		m, isMap := next.AsMap()
		if !ok || !isMap {
			m = NewMap()
			cur.Set(seg, Object(m))
		}
		cur = m
	}
	return cur
}

// Remove deletes the leaf at p and reports whether anything was removed.
func (t *Tree) Remove(p Path) bool {
	if p.IsRoot() {
		return false
	}
	parent, leaf := p.Parent()
	v, ok := t.Get(parent)
	if !ok {
		return false
	}
	m, ok := v.AsMap()
	if !ok {
		return false
	}
	return m.Delete(leaf)
}

// Keys lists the immediate children of the map at p.
func (t *Tree) Keys(p Path) []string {
	v, ok := t.Get(p)
	if !ok {
		return nil
	}
	m, _ := v.AsMap()
	return m.Keys()
}

func (t *Tree) Size(p Path) int {
	v, ok := t.Get(p)
	if !ok {
		return 0
	}
	m, _ := v.AsMap()
	return m.Len()
}

func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root.Clone()}
}

func (t *Tree) Equal(o *Tree) bool {
	return t.root.Equal(o.root)
}

// Overlay deep-merges src into the tree; src wins on conflicts. Nested
// maps are merged key by key, anything else is replaced by a copy.
func (t *Tree) Overlay(src *Map) {
	overlay(t.root, src)
}

func overlay(dst, src *Map) {
	src.Range(func(k string, v Value) bool {
		if sm, ok := v.AsMap(); ok {
			cur, _ := dst.Get(k)
			if dm, ok := cur.AsMap(); ok {
				overlay(dm, sm)
				return true
			}
		}
		dst.Set(k, v.Clone())
		return true
	})
}
