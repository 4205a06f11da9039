package attr

import "strconv"

// MergeJSONLike flattens v into the tree at base.
//
// Maps merge field by field. Inside a list, map and list elements expand
// under base/<index> while scalar elements collapse into one list value set
// at base. When a list holds both, the scalars are written under their own
// index instead: base cannot be a list value and a map of indexed children
// at the same time.
// Nulls are skipped. Merging the same value twice leaves the tree as one
// merge did.
func (t *Tree) MergeJSONLike(v Value, base Path) {
	switch v.Kind() {
	case KindNull:
	case KindMap:
		v.m.Range(func(k string, e Value) bool {
			t.MergeJSONLike(e, base.Append(k))
			return true
		})
	case KindList:
		t.mergeList(v.list, base)
	default:
		t.Set(base, v)
	}
}

func (t *Tree) mergeList(elems []Value, base Path) {
	mixed := false
	for _, e := range elems {
		if e.IsContainer() {
			mixed = true
			break
		}
	}

	var scalars []Value
	for i, e := range elems {
		switch {
		case e.IsNull():
		case e.IsContainer():
			t.MergeJSONLike(e, base.Append(strconv.Itoa(i)))
		case mixed:
			t.Set(base.Append(strconv.Itoa(i)), e)
		default:
			scalars = append(scalars, e)
		}
	}
	if len(scalars) > 0 {
		t.Set(base, List(scalars...))
	}
}
