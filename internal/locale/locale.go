// Package locale manages per-plugin YAML documents, one per language,
// that plugins bind to typed structs. Item records embedded in those
// structs persist through their own YAML form.
package locale

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Ext is the file extension of locale documents.
const Ext = ".yml"

// Locale is one plugin's document for one language. It is not safe for
// concurrent use.
type Locale struct {
	PluginID string
	Tag      language.Tag

	path string
	enc  encoding.Encoding
	doc  *yaml.Node
	log  *zap.Logger
}

// Open loads the document at path. A missing file gives an empty document
// that is created on the first Save.
func Open(path, pluginID string, tag language.Tag, charset string, log *zap.Logger) (*Locale, error) {
	enc, err := lookupCharset(charset)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	l := &Locale{PluginID: pluginID, Tag: tag, path: path, enc: enc, log: log}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func lookupCharset(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", name, err)
	}
	return enc, nil
}

func (l *Locale) Path() string {
	return l.path
}

// Reload discards in-memory changes and rereads the file.
func (l *Locale) Reload() error {
	raw, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.doc = emptyDocument()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read locale %s: %w", l.path, err)
	}
	raw, err = l.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return fmt.Errorf("decode locale %s: %w", l.path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse locale %s: %w", l.path, err)
	}
	if doc.Kind == 0 {
		doc = *emptyDocument()
	}
	l.doc = &doc
	l.log.Debug("loaded locale", zap.String("plugin", l.PluginID),
		zap.String("locale", l.Tag.String()), zap.String("file", l.path))
	return nil
}

// Save writes the document in block style.
func (l *Locale) Save() error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(l.doc); err != nil {
		return fmt.Errorf("encode locale %s: %w", l.path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode locale %s: %w", l.path, err)
	}
	raw, err := l.enc.NewEncoder().Bytes(buf.Bytes())
	if err != nil {
		return fmt.Errorf("encode locale %s: %w", l.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("save locale %s: %w", l.path, err)
	}
	if err := os.WriteFile(l.path, raw, 0o644); err != nil {
		return fmt.Errorf("save locale %s: %w", l.path, err)
	}
	return nil
}

func emptyDocument() *yaml.Node {
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
}

func (l *Locale) root() *yaml.Node {
	return l.doc.Content[0]
}

// Node returns the node at path.
func (l *Locale) Node(path ...string) (*yaml.Node, bool) {
	cur := l.root()
	for _, seg := range path {
		next := child(cur, seg)
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Get decodes the node at path into out.
func (l *Locale) Get(out any, path ...string) error {
	n, ok := l.Node(path...)
	if !ok {
		return fmt.Errorf("locale %s: %w: %s", l.path, ErrMissingNode, strings.Join(path, "."))
	}
	return n.Decode(out)
}

// Set encodes v at path, creating intermediate mappings.
func (l *Locale) Set(v any, path ...string) error {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return fmt.Errorf("locale %s: encode %s: %w", l.path, strings.Join(path, "."), err)
	}
	if len(path) == 0 {
		if n.Kind != yaml.MappingNode {
			return fmt.Errorf("locale %s: root must be a mapping", l.path)
		}
		l.doc.Content[0] = &n
		return nil
	}
	parent := l.ensure(path[:len(path)-1])
	setChild(parent, path[len(path)-1], &n)
	return nil
}

// SetComment attaches a comment above the node at path.
func (l *Locale) SetComment(comment string, path ...string) bool {
	if len(path) == 0 {
		l.root().HeadComment = comment
		return true
	}
	parent, ok := l.Node(path[:len(path)-1]...)
	if !ok {
		return false
	}
	key := childKey(parent, path[len(path)-1])
	if key == nil {
		return false
	}
	key.HeadComment = comment
	return true
}

func (l *Locale) ensure(path []string) *yaml.Node {
	cur := l.root()
	for _, seg := range path {
		next := child(cur, seg)
		if next == nil || next.Kind != yaml.MappingNode {
			next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			setChild(cur, seg, next)
		}
		cur = next
	}
	return cur
}

func childKey(m *yaml.Node, key string) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i]
		}
	}
	return nil
}

func child(m *yaml.Node, key string) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setChild(m *yaml.Node, key string, v *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = v
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, v)
}
