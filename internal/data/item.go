package data

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/l1jgo/itemstack/internal/attr"
	"github.com/l1jgo/itemstack/internal/item"
	"gopkg.in/yaml.v3"
)

// ItemCategory distinguishes tools, armour and plain items.
type ItemCategory int

const (
	CategoryEtcItem ItemCategory = 0
	CategoryWeapon  ItemCategory = 1
	CategoryArmor   ItemCategory = 2
	CategoryBlock   ItemCategory = 3
)

var categoryMap = map[string]ItemCategory{
	"item":   CategoryEtcItem,
	"etc":    CategoryEtcItem,
	"weapon": CategoryWeapon,
	"armor":  CategoryArmor,
	"block":  CategoryBlock,
}

// CategoryFromString converts a YAML category, defaulting to CategoryEtcItem.
func CategoryFromString(s string) ItemCategory {
	if v, ok := categoryMap[strings.ToLower(s)]; ok {
		return v
	}
	return CategoryEtcItem
}

// ItemInfo is an item type definition. It is the registry's TypeHandle.
type ItemInfo struct {
	ID       item.Identifier
	Name     string
	Category ItemCategory
	Material string
	Weight   int32
	MaxStack int

	// Components are the attributes every new item of this type carries.
	Components *attr.Map
}

func (i *ItemInfo) Key() item.Identifier {
	return i.ID
}

// Stackable reports whether more than one item fits in a slot.
func (i *ItemInfo) Stackable() bool {
	return i.MaxStack > 1
}

// ItemTable holds all item definitions indexed by identifier.
type ItemTable struct {
	namespace string
	items     map[item.Identifier]*ItemInfo
}

// NewItemTable creates an empty table resolving bare identifiers in
// namespace.
func NewItemTable(namespace string) *ItemTable {
	if namespace == "" {
		namespace = item.DefaultNamespace
	}
	return &ItemTable{namespace: namespace, items: make(map[item.Identifier]*ItemInfo, 256)}
}

// Get returns an item by identifier, or nil if not found.
func (t *ItemTable) Get(id item.Identifier) *ItemInfo {
	return t.items[id]
}

// Count returns total loaded items.
func (t *ItemTable) Count() int {
	return len(t.items)
}

// IDs lists every identifier in sorted order.
func (t *ItemTable) IDs() []item.Identifier {
	out := make([]item.Identifier, 0, len(t.items))
	for id := range t.items {
		out = append(out, id)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].String() < out[b].String() })
	return out
}

// Add registers def, replacing any earlier definition with the same id.
func (t *ItemTable) Add(def *ItemInfo) {
	t.items[def.ID] = def
}

// ResolveType implements item.Registry. Identifiers without a namespace
// resolve in the table's namespace.
func (t *ItemTable) ResolveType(id string) (item.TypeHandle, bool) {
	key, ok := t.parse(id)
	if !ok {
		return nil, false
	}
	def, ok := t.items[key]
	if !ok {
		return nil, false
	}
	return def, true
}

func (t *ItemTable) parse(id string) (item.Identifier, bool) {
	if !strings.Contains(id, ":") {
		id = t.namespace + ":" + id
	}
	key, err := item.ParseIdentifier(id)
	return key, err == nil
}

// LoadItemTable loads every item definition file into a single table.
// Later files override earlier ones.
func LoadItemTable(namespace string, paths ...string) (*ItemTable, error) {
	t := NewItemTable(namespace)
	for _, p := range paths {
		if err := loadItems(t, p); err != nil {
			return nil, err
		}
	}
	return t, nil
}

type itemEntry struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Category   string    `yaml:"category"`
	Material   string    `yaml:"material"`
	Weight     int32     `yaml:"weight"`
	MaxStack   int       `yaml:"max_stack"`
	Components *attr.Map `yaml:"components"`
}

type itemListFile struct {
	Items []itemEntry `yaml:"items"`
}

func loadItems(t *ItemTable, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	return t.parseItems(raw, path)
}

func (t *ItemTable) parseItems(raw []byte, path string) error {
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse items %s: %w", path, err)
	}
	for i := range f.Items {
		e := &f.Items[i]
		id, ok := t.parse(e.ID)
		if !ok {
			return fmt.Errorf("parse items %s: entry %d: %w: %q", path, i, item.ErrInvalidIdentifier, e.ID)
		}
		maxStack := e.MaxStack
		if maxStack == 0 {
			maxStack = 64
		}
		comps := e.Components
		if comps == nil {
			comps = attr.NewMap()
		}
		t.items[id] = &ItemInfo{
			ID:         id,
			Name:       e.Name,
			Category:   CategoryFromString(e.Category),
			Material:   e.Material,
			Weight:     e.Weight,
			MaxStack:   maxStack,
			Components: comps,
		}
	}
	return nil
}
