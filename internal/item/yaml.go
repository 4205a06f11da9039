package item

import (
	"errors"
	"fmt"

	"github.com/l1jgo/itemstack/internal/attr"
	"gopkg.in/yaml.v3"
)

// Persisted field names.
const (
	keyItemType        = "ItemType"
	keyQuantity        = "Quantity"
	keyPlainAttributes = "PlainAttributes"
	keyAttributesMap   = "AttributesMap"
)

var errBothForms = errors.New("both plain and structured attributes present")

type recordDoc struct {
	ItemType        string    `yaml:"ItemType"`
	Quantity        int       `yaml:"Quantity"`
	PlainAttributes string    `yaml:"PlainAttributes,omitempty"`
	AttributesMap   *attr.Map `yaml:"AttributesMap,omitempty"`

	// Written by older releases.
	PlainComponents string    `yaml:"PlainComponents,omitempty"`
	ComponentsMap   *attr.Map `yaml:"ComponentsMap,omitempty"`
}

// MarshalYAML writes the record with whichever attribute form it holds.
func (r *Record) MarshalYAML() (any, error) {
	doc := recordDoc{ItemType: r.itemType, Quantity: r.quantity}
	switch r.attrs.form {
	case FormPlain:
		doc.PlainAttributes = r.attrs.plain
	case FormStructured:
		doc.AttributesMap = r.attrs.tree
	}
	return doc, nil
}

// UnmarshalYAML reads a record. Records decoded into a fresh value use the
// default environment.
func (r *Record) UnmarshalYAML(n *yaml.Node) error {
	var doc recordDoc
	if err := n.Decode(&doc); err != nil {
		return err
	}
	plain := doc.PlainAttributes
	if plain == "" {
		plain = doc.PlainComponents
	}
	tree := doc.AttributesMap
	if tree == nil {
		tree = doc.ComponentsMap
	}
	if plain != "" && tree != nil {
		return fmt.Errorf("item %s at line %d: %w", doc.ItemType, n.Line, errBothForms)
	}

	r.itemType = doc.ItemType
	r.quantity = doc.Quantity
	r.live = nil
	switch {
	case tree != nil && tree.Len() > 0:
		r.attrs = structuredPayload(tree)
	default:
		r.attrs = plainPayload(plain)
	}
	return nil
}
