package attr

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Node renders v as a yaml node with explicit tags, so a string that looks
// like a number stays a string once written to a document.
func (v Value) Node() *yaml.Node {
	switch v.kind {
	case KindBool:
		return scalar("!!bool", v.String())
	case KindNumber:
		if v.n.float {
			return scalar("!!float", yamlFloat(v.n.f))
		}
		return scalar("!!int", v.n.String())
	case KindString:
		return scalar("!!str", v.s)
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.list {
			n.Content = append(n.Content, e.Node())
		}
		return n
	case KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.m.Range(func(k string, e Value) bool {
			n.Content = append(n.Content, scalar("!!str", k), e.Node())
			return true
		})
		return n
	}
	return scalar("!!null", "null")
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	return FloatNumber(f).String()
}

// FromNode converts a parsed yaml node. Aliases are resolved; timestamps
// and binary scalars are kept as their string form.
func FromNode(n *yaml.Node) (Value, error) {
	if n == nil {
		return Null(), nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return FromNode(n.Content[0])
	case yaml.AliasNode:
		return FromNode(n.Alias)
	case yaml.SequenceNode:
		out := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			e, err := FromNode(c)
			if err != nil {
				return Value{}, err
			}
			out = append(out, e)
		}
		return Value{kind: KindList, list: out}, nil
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return Value{}, fmt.Errorf("line %d: non-scalar map key", k.Line)
			}
			e, err := FromNode(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			m.Set(k.Value, e)
		}
		return Object(m), nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return Value{}, fmt.Errorf("line %d: unexpected yaml node kind %d", n.Line, n.Kind)
}

func fromScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		return Float(f), nil
	}
	return String(n.Value), nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.Node(), nil
}

func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	out, err := FromNode(n)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func (m *Map) MarshalYAML() (any, error) {
	return Object(m).Node(), nil
}

func (m *Map) UnmarshalYAML(n *yaml.Node) error {
	v, err := FromNode(n)
	if err != nil {
		return err
	}
	if v.IsNull() {
		*m = Map{}
		return nil
	}
	mm, ok := v.AsMap()
	if !ok {
		return fmt.Errorf("line %d: expected a mapping, got %s", n.Line, v.Kind())
	}
	*m = *mm
	return nil
}

// Encode renders any yaml-encodable Go value as a Value. It is the
// structural fallback for data types that do not implement Valuer.
func Encode(x any) (Value, error) {
	var n yaml.Node
	if err := n.Encode(x); err != nil {
		return Value{}, fmt.Errorf("encode %T: %w", x, err)
	}
	return FromNode(&n)
}

// Decode materialises v as a T through its yaml form.
func Decode[T any](v Value) (T, error) {
	var out T
	if err := v.Node().Decode(&out); err != nil {
		return out, fmt.Errorf("decode %s into %T: %w", v.Kind(), out, err)
	}
	return out, nil
}
