// Package item implements the serialized item record: a type identifier,
// a quantity and an attribute payload that is held either as a compact
// encoded string or as a structured tree, plus the owner-scoped editor
// plugins use to attach their own data to it.
//
// Records are not safe for concurrent use. A record and every editor
// obtained from it belong to one goroutine at a time; the embedding
// application is responsible for that.
package item

import (
	"fmt"

	"github.com/l1jgo/itemstack/internal/attr"
	"github.com/l1jgo/itemstack/internal/codec"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Form is the authoritative representation of a record's payload.
type Form uint8

const (
	FormUnset Form = iota
	FormPlain
	FormStructured
)

func (f Form) String() string {
	switch f {
	case FormPlain:
		return "plain"
	case FormStructured:
		return "structured"
	}
	return "unset"
}

// payload holds exactly one representation. It is replaced wholesale,
// never patched, so the two forms cannot disagree.
type payload struct {
	form  Form
	plain string
	tree  *attr.Map
}

func unsetPayload() payload {
	return payload{}
}

func plainPayload(s string) payload {
	if s == "" {
		return unsetPayload()
	}
	return payload{form: FormPlain, plain: s}
}

func structuredPayload(m *attr.Map) payload {
	if m == nil {
		m = attr.NewMap()
	}
	return payload{form: FormStructured, tree: m}
}

// Record is a serialized item.
type Record struct {
	itemType string
	quantity int
	attrs    payload
	live     LiveItem
	env      *Env
}

// FromParts builds a record without checking itemType against the
// registry; resolution happens on first Materialize.
func FromParts(itemType string, quantity int, plain string) *Record {
	return Default().FromParts(itemType, quantity, plain)
}

func (e *Env) FromParts(itemType string, quantity int, plain string) *Record {
	return &Record{itemType: itemType, quantity: quantity, attrs: plainPayload(plain), env: e}
}

// FromLiveItem captures a live item. The payload starts in plain form.
func FromLiveItem(live LiveItem) *Record {
	return Default().FromLiveItem(live)
}

func (e *Env) FromLiveItem(live LiveItem) *Record {
	r := &Record{itemType: live.TypeKey().String(), quantity: live.Quantity(), env: e}
	if m, ok := e.Container.ExtractAttributes(live); ok {
		r.attrs = r.encode(m)
	}
	r.live = live.Copy()
	return r
}

// FromBlock captures the item form of a placed block, one of it, with the
// block's components as payload. Blocks without an item form become air.
func FromBlock(b Block) *Record {
	return Default().FromBlock(b)
}

func (e *Env) FromBlock(b Block) *Record {
	handle, ok := b.ItemForm()
	if !ok {
		return e.FromParts(Air.String(), 1, "")
	}
	r := e.FromParts(handle.Key().String(), 1, "")
	if m, ok := b.Components(); ok {
		r.attrs = r.encode(m)
	}
	return r
}

// WithEnv binds r to e and returns r.
func (r *Record) WithEnv(e *Env) *Record {
	r.env = e
	r.live = nil
	return r
}

func (r *Record) environment() *Env {
	if r.env != nil {
		return r.env
	}
	return Default()
}

func (r *Record) log() *zap.Logger {
	return r.environment().Log
}

func (r *Record) ItemType() string {
	return r.itemType
}

func (r *Record) SetItemType(itemType string) {
	r.itemType = itemType
	r.invalidate()
}

func (r *Record) Quantity() int {
	return r.quantity
}

// SetQuantity accepts any value unless the environment enforces a
// QuantityPolicy, in which case out-of-range values are rejected and the
// record is left unchanged.
func (r *Record) SetQuantity(n int) error {
	if err := r.environment().Quantity.Check(n); err != nil {
		return err
	}
	r.quantity = n
	r.invalidate()
	return nil
}

func (r *Record) Form() Form {
	return r.attrs.form
}

// AttributesAsPlainString returns the encoded payload, or "" unless the
// record is in plain form.
func (r *Record) AttributesAsPlainString() string {
	return r.attrs.plain
}

// AttributesAsStructured returns a copy of the structured payload. It
// reports false unless the record is in structured form.
func (r *Record) AttributesAsStructured() (*attr.Map, bool) {
	if r.attrs.form != FormStructured {
		return nil, false
	}
	return r.attrs.tree.Clone(), true
}

// Attributes returns a private copy of the payload whatever its form.
// Malformed plain data is logged and reported as absent.
func (r *Record) Attributes() (*attr.Map, bool) {
	switch r.attrs.form {
	case FormStructured:
		return r.attrs.tree.Clone(), true
	case FormPlain:
		m, err := r.environment().Codec.Decode(r.attrs.plain)
		if err != nil {
			r.log().Warn("discarding malformed attribute data",
				zap.String("item_type", r.itemType), zap.Error(err))
			return nil, false
		}
		return m, true
	}
	return nil, false
}

// ToStructured switches the payload to structured form. Plain data that
// does not decode is reported with codec.ErrMalformedAttributeData and
// the record is left as it was.
func (r *Record) ToStructured() (*Record, error) {
	if r.attrs.form != FormPlain {
		return r, nil
	}
	m, err := r.environment().Codec.Decode(r.attrs.plain)
	if err != nil {
		return r, fmt.Errorf("item %s: %w", r.itemType, err)
	}
	r.attrs = structuredPayload(m)
	return r, nil
}

// ToPlain switches the payload to plain form. An empty structured payload
// becomes unset.
func (r *Record) ToPlain() *Record {
	if r.attrs.form == FormStructured {
		r.attrs = r.encode(r.attrs.tree)
	}
	return r
}

// Encoded returns the payload as a plain string whatever the current
// form, without switching forms. Unset payloads give "".
func (r *Record) Encoded() (string, error) {
	if r.attrs.form != FormStructured || r.attrs.tree.Len() == 0 {
		return r.attrs.plain, nil
	}
	return r.environment().Codec.Encode(r.attrs.tree)
}

// encode produces the plain payload for m. A tree that cannot be encoded
// stays structured and is logged.
func (r *Record) encode(m *attr.Map) payload {
	if m.Len() == 0 {
		return unsetPayload()
	}
	s, err := r.environment().Codec.Encode(m)
	if err != nil {
		r.log().Warn("cannot encode attribute data",
			zap.String("item_type", r.itemType), zap.Error(err))
		return structuredPayload(m)
	}
	return plainPayload(s)
}

func (r *Record) invalidate() {
	r.live = nil
}

// TypeHandle resolves the record's item type.
func (r *Record) TypeHandle() (TypeHandle, error) {
	h, ok := r.environment().Registry.ResolveType(r.itemType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedType, r.itemType)
	}
	return h, nil
}

// ItemKey returns a display-safe identifier, air when the type does not
// resolve.
func (r *Record) ItemKey() Identifier {
	h, err := r.TypeHandle()
	if err != nil {
		return Air
	}
	return h.Key()
}

// Materialize builds the live item: the type's default item of the
// record's quantity with the payload laid over its default attributes.
// Unresolved types give the air item. The result is cached until the
// next mutation; every call returns an independent copy.
func (r *Record) Materialize() LiveItem {
	if r.live != nil {
		return r.live.Copy()
	}
	env := r.environment()
	h, err := r.TypeHandle()
	if err != nil {
		env.Log.Debug("materialising as air", zap.Error(err))
		r.live = env.Container.Empty()
		return r.live.Copy()
	}

	base := env.Container.BuildLiveItem(h, r.quantity, nil)
	tree := attr.NewTree()
	if defaults, ok := env.Container.ExtractAttributes(base); ok {
		tree = attr.TreeOf(defaults.Clone())
	}
	if p, ok := r.Attributes(); ok {
		tree.Overlay(p)
	}
	r.live = env.Container.BuildLiveItem(h, r.quantity, tree.Root())
	return r.live.Copy()
}

// Editor returns an editor scoped to owner. Editors are cheap; request
// one whenever needed.
func (r *Record) Editor(owner Owner) *Editor {
	return &Editor{rec: r, owner: owner.OwnerID()}
}

// Equal compares type, quantity and payload content. The payload form
// does not matter.
func (r *Record) Equal(o *Record) bool {
	return r.EqualIgnoringQuantity(o) && r.quantity == o.quantity
}

func (r *Record) EqualIgnoringQuantity(o *Record) bool {
	if r == o {
		return true
	}
	if o == nil {
		return false
	}
	return r.itemType == o.itemType && r.sameAttributes(o)
}

func (r *Record) EqualIgnoringAttributes(o *Record) bool {
	if r == o {
		return true
	}
	if o == nil {
		return false
	}
	return r.itemType == o.itemType && r.quantity == o.quantity
}

// EqualLiveItem reports whether capturing live would give a record equal
// to r.
func (r *Record) EqualLiveItem(live LiveItem) bool {
	return r.Equal(r.environment().FromLiveItem(live))
}

// sameAttributes compares payloads by content. A plain payload that does
// not decode only equals the identical string.
func (r *Record) sameAttributes(o *Record) bool {
	if r.attrs.form == FormPlain && o.attrs.form == FormPlain && r.attrs.plain == o.attrs.plain {
		return true
	}
	a, errA := r.decoded()
	b, errB := o.decoded()
	if errA != nil || errB != nil {
		return false
	}
	return a.Equal(b)
}

// decoded is Attributes without the logging. Unset gives nil.
func (r *Record) decoded() (*attr.Map, error) {
	switch r.attrs.form {
	case FormStructured:
		return r.attrs.tree, nil
	case FormPlain:
		return r.environment().Codec.Decode(r.attrs.plain)
	}
	return nil, nil
}

// Fingerprint hashes the type and payload content, ignoring quantity and
// form. Records that are EqualIgnoringQuantity share a fingerprint.
func (r *Record) Fingerprint() [32]byte {
	buf := make([]byte, 0, len(r.itemType)+64)
	buf = append(buf, r.itemType...)
	buf = append(buf, 0)
	if m, err := r.decoded(); err == nil {
		buf = append(buf, codec.Canonical(m)...)
	} else {
		// malformed data hashes as its raw text, never as a valid tree
		buf = append(buf, 1)
		buf = append(buf, r.attrs.plain...)
	}
	return blake2b.Sum256(buf)
}

// Clone returns a deep copy bound to the same environment. The live item
// cache is not carried over.
func (r *Record) Clone() *Record {
	c := &Record{itemType: r.itemType, quantity: r.quantity, attrs: r.attrs, env: r.env}
	if r.attrs.form == FormStructured {
		c.attrs = structuredPayload(r.attrs.tree.Clone())
	}
	return c
}

// Render describes the record as a nested component, so a record can be
// stored inside another record's plugin data.
func (r *Record) Render() *attr.Map {
	m := attr.NewMap()
	m.Set(keyItemType, attr.String(r.itemType))
	m.Set(keyQuantity, attr.Int(int64(r.quantity)))
	switch r.attrs.form {
	case FormPlain:
		m.Set(keyPlainAttributes, attr.String(r.attrs.plain))
	case FormStructured:
		m.Set(keyAttributesMap, attr.Object(r.attrs.tree.Clone()))
	}
	return m
}

func (r *Record) String() string {
	attrs, err := r.Encoded()
	if err != nil {
		attrs = string(codec.Canonical(r.attrs.tree))
	}
	return fmt.Sprintf("ItemType: %s, Quantity: %d, Attributes: %s", r.itemType, r.quantity, attrs)
}
