package codec

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/l1jgo/itemstack/internal/attr"
)

// Cached memoises Decode results of another codec. Plain strings are
// decoded on every structured read of a record, and most records in a
// document share a handful of payloads.
type Cached struct {
	next  Codec
	cache *lru.Cache[string, *attr.Map]
}

// NewCached wraps next with an LRU of size entries.
func NewCached(next Codec, size int) (*Cached, error) {
	cache, err := lru.New[string, *attr.Map](size)
	if err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Encode(m *attr.Map) (string, error) {
	return c.next.Encode(m)
}

// Decode returns a private copy; failures are not cached.
func (c *Cached) Decode(s string) (*attr.Map, error) {
	if m, ok := c.cache.Get(s); ok {
		return m.Clone(), nil
	}
	m, err := c.next.Decode(s)
	if err != nil {
		return nil, err
	}
	c.cache.Add(s, m.Clone())
	return m, nil
}

// Len reports how many payloads are cached.
func (c *Cached) Len() int {
	return c.cache.Len()
}
