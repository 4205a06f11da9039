package item

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/l1jgo/itemstack/internal/attr"
)

var (
	// ErrUnresolvedType is logged when an item type is not in the registry.
	// Records degrade to the air item instead of failing.
	ErrUnresolvedType = errors.New("unresolved item type")

	// ErrQuantityOutOfRange is returned by SetQuantity when the
	// environment enforces a QuantityPolicy.
	ErrQuantityOutOfRange = errors.New("quantity out of range")

	// ErrUnsupportedValueKind is attr.ErrUnsupportedValueKind, re-exported
	// for callers of Editor.Put.
	ErrUnsupportedValueKind = attr.ErrUnsupportedValueKind

	// ErrEmptySegment is returned by editor writes when the owner id or
	// the key is empty.
	ErrEmptySegment = errors.New("empty owner id or key")

	// ErrInvalidIdentifier is returned by ParseIdentifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// DefaultNamespace is assumed for identifiers written without one.
const DefaultNamespace = "minecraft"

// Air is the identifier of the empty item.
var Air = Identifier{Namespace: DefaultNamespace, Value: "air"}

var (
	namespacePattern = regexp.MustCompile(`^[a-z0-9_.-]+$`)
	valuePattern     = regexp.MustCompile(`^[a-z0-9_./-]+$`)
)

// Identifier is a namespaced type key such as "minecraft:stone".
type Identifier struct {
	Namespace string
	Value     string
}

// ParseIdentifier accepts "namespace:value" or a bare value in the
// default namespace.
func ParseIdentifier(s string) (Identifier, error) {
	ns, val, found := strings.Cut(s, ":")
	if !found {
		ns, val = DefaultNamespace, s
	}
	if !namespacePattern.MatchString(ns) || !valuePattern.MatchString(val) {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return Identifier{Namespace: ns, Value: val}, nil
}

func (id Identifier) String() string {
	return id.Namespace + ":" + id.Value
}

// TypeHandle is an item type resolved against a live registry.
type TypeHandle interface {
	Key() Identifier
}

// LiveItem is an engine-side item instance. Copy must return an instance
// that shares no mutable state with the receiver.
type LiveItem interface {
	TypeKey() Identifier
	Quantity() int
	Copy() LiveItem
}

// Registry resolves textual type identifiers. Implementations must be
// idempotent and side-effect free.
type Registry interface {
	ResolveType(id string) (TypeHandle, bool)
}

// Container is the only bridge between records and the live item model.
type Container interface {
	// ExtractAttributes returns the item's attribute tree, if it has one.
	ExtractAttributes(live LiveItem) (*attr.Map, bool)
	// BuildLiveItem creates an item of the given type and quantity. A nil
	// attrs builds the type's default item.
	BuildLiveItem(t TypeHandle, quantity int, attrs *attr.Map) LiveItem
	// Empty returns the air item.
	Empty() LiveItem
}

// Block is a placed block that may have an item form.
type Block interface {
	ItemForm() (TypeHandle, bool)
	Components() (*attr.Map, bool)
}

// Owner identifies the plugin whose subtree an Editor works on.
type Owner interface {
	OwnerID() string
}

// OwnerID is the simplest Owner.
type OwnerID string

func (o OwnerID) OwnerID() string { return string(o) }

type noRegistry struct{}

func (noRegistry) ResolveType(string) (TypeHandle, bool) { return nil, false }

type airItem struct{}

func (airItem) TypeKey() Identifier { return Air }
func (airItem) Quantity() int { return 0 }
func (airItem) Copy() LiveItem { return airItem{} }

// noContainer is used until a real container is configured: every item
// materialises as air and carries no attributes.
type noContainer struct{}

func (noContainer) ExtractAttributes(LiveItem) (*attr.Map, bool) { return nil, false }
func (noContainer) BuildLiveItem(TypeHandle, int, *attr.Map) LiveItem { return airItem{} }
func (noContainer) Empty() LiveItem { return airItem{} }
