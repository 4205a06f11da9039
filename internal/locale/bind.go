package locale

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrMissingNode is returned by Get for paths the document does not have.
var ErrMissingNode = errors.New("missing locale node")

// Bind fills ref, a pointer to a struct holding default values, from the
// document. Keys the document lacks are copied from ref's defaults and
// the document is saved, so new entries appear in the file for
// translators.
func (l *Locale) Bind(ref any) error {
	var defaults yaml.Node
	if err := defaults.Encode(ref); err != nil {
		return fmt.Errorf("locale %s: encode defaults: %w", l.path, err)
	}
	added := addMissing(l.root(), &defaults)
	if err := l.root().Decode(ref); err != nil {
		return fmt.Errorf("locale %s: bind %T: %w", l.path, ref, err)
	}
	if added == 0 {
		return nil
	}
	l.log.Info("added missing locale entries", zap.String("plugin", l.PluginID),
		zap.String("locale", l.Tag.String()), zap.Int("count", added))
	return l.Save()
}

// addMissing copies keys of src that dst lacks, descending into mappings
// present in both. It returns the number of keys added.
func addMissing(dst, src *yaml.Node) int {
	if dst.Kind != yaml.MappingNode || src.Kind != yaml.MappingNode {
		return 0
	}
	added := 0
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, val := src.Content[i], src.Content[i+1]
		existing := child(dst, key.Value)
		if existing == nil {
			dst.Content = append(dst.Content, key, val)
			added++
			continue
		}
		added += addMissing(existing, val)
	}
	return added
}
