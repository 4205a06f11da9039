package locale

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// ErrNoLocale is returned when a plugin has no document at all.
var ErrNoLocale = errors.New("no locale for plugin")

// Service keeps the locale documents of every plugin under one directory,
// laid out as <dir>/<plugin>/<tag>.yml.
type Service struct {
	dir     string
	def     language.Tag
	charset string
	log     *zap.Logger

	mu      sync.Mutex
	plugins map[string]map[language.Tag]*Locale
}

func NewService(dir string, def language.Tag, charset string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		dir:     dir,
		def:     def,
		charset: charset,
		log:     log,
		plugins: make(map[string]map[language.Tag]*Locale),
	}
}

func (s *Service) Default() language.Tag {
	return s.def
}

// Create opens (or returns the already open) document for plugin and tag.
func (s *Service) Create(pluginID string, tag language.Tag) (*Locale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open(pluginID, tag)
}

func (s *Service) open(pluginID string, tag language.Tag) (*Locale, error) {
	if l, ok := s.plugins[pluginID][tag]; ok {
		return l, nil
	}
	path := filepath.Join(s.dir, pluginID, tag.String()+Ext)
	l, err := Open(path, pluginID, tag, s.charset, s.log)
	if err != nil {
		return nil, err
	}
	if s.plugins[pluginID] == nil {
		s.plugins[pluginID] = make(map[language.Tag]*Locale)
	}
	s.plugins[pluginID][tag] = l
	return l, nil
}

// Scan opens every document found in the plugin's directory. Files whose
// names are not language tags are skipped.
func (s *Service) Scan(pluginID string) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, pluginID))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("scan locales for %s: %w", pluginID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		tag, err := language.Parse(strings.TrimSuffix(e.Name(), Ext))
		if err != nil {
			s.log.Warn("skipping locale file", zap.String("plugin", pluginID),
				zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		if _, err := s.open(pluginID, tag); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Tags lists the plugin's open locales, sorted.
func (s *Service) Tags(pluginID string) []language.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tags(pluginID)
}

func (s *Service) tags(pluginID string) []language.Tag {
	out := make([]language.Tag, 0, len(s.plugins[pluginID]))
	for t := range s.plugins[pluginID] {
		out = append(out, t)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].String() < out[b].String() })
	return out
}

// Get returns the plugin's best document for tag: an exact match, then the
// closest language, then the default locale.
func (s *Service) Get(pluginID string, tag language.Tag) (*Locale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locales := s.plugins[pluginID]
	if l, ok := locales[tag]; ok {
		return l, nil
	}
	if len(locales) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoLocale, pluginID)
	}

	// The default goes first so that it wins when nothing matches.
	have := []language.Tag{s.def}
	for _, t := range s.tags(pluginID) {
		if t != s.def {
			have = append(have, t)
		}
	}
	_, idx, conf := language.NewMatcher(have).Match(tag)
	if conf != language.No {
		if l, ok := locales[have[idx]]; ok {
			return l, nil
		}
	}
	if l, ok := locales[s.def]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: %s has no %s or default %s", ErrNoLocale, pluginID, tag, s.def)
}

// SaveAll writes every open document of the plugin.
func (s *Service) SaveAll(pluginID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags(pluginID) {
		if err := s.plugins[pluginID][t].Save(); err != nil {
			return err
		}
	}
	return nil
}
