package loader

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/flowgraph/jdm/schema"
)

// CacheOption configures a Cached loader's caching strategy.
type CacheOption func(*Cached)

// WithUnboundedCache selects an immutable-snapshot cache backed by a
// copy-on-write map behind an atomic.Pointer, grounded on the teacher's
// Vault (vault.go): every write swaps in a whole new snapshot, so reads
// never block on a writer. Appropriate for a bounded, known universe of
// decision keys loaded once at startup.
func WithUnboundedCache() CacheOption {
	return func(c *Cached) {
		m := map[string]*schema.Document{}
		c.snapshot.Store(&m)
		c.strategy = strategyUnbounded
	}
}

// WithLRU selects a bounded github.com/hashicorp/golang-lru/v2 cache of
// the given size, grounded on Keyhole-Koro-InsightifyCore's artifact
// store. This is the default strategy: an unbounded map-of-everything
// cache is the wrong default for a long-running service resolving many
// distinct keys over its lifetime.
func WithLRU(size int) CacheOption {
	return func(c *Cached) {
		l, _ := lru.New[string, *schema.Document](size)
		c.lru = l
		c.strategy = strategyLRU
	}
}

type strategy int

const (
	strategyLRU strategy = iota
	strategyUnbounded
)

// Cached wraps another Loader and caches parsed documents (including
// their pre-parsed expression ASTs) keyed by load key, per spec §4.G.
// A wrapped Loader may opt out of caching entirely by implementing
// NoCache() bool.
type Cached struct {
	inner    Loader
	strategy strategy
	lru      *lru.Cache[string, *schema.Document]
	snapshot atomic.Pointer[map[string]*schema.Document]
}

// NewCached wraps inner with caching. Defaults to a bounded LRU of 128
// entries; pass WithUnboundedCache or WithLRU to override.
func NewCached(inner Loader, opts ...CacheOption) *Cached {
	c := &Cached{inner: inner}
	WithLRU(128)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load implements Loader, consulting the cache before delegating to the
// wrapped loader on a miss.
func (c *Cached) Load(key string) (*schema.Document, error) {
	if nc, ok := c.inner.(noCacher); ok && nc.NoCache() {
		return c.inner.Load(key)
	}

	if doc, ok := c.get(key); ok {
		return doc, nil
	}

	doc, err := c.inner.Load(key)
	if err != nil {
		return nil, err
	}
	c.put(key, doc)
	return doc, nil
}

func (c *Cached) get(key string) (*schema.Document, bool) {
	switch c.strategy {
	case strategyLRU:
		return c.lru.Get(key)
	default:
		m := c.snapshot.Load()
		if m == nil {
			return nil, false
		}
		doc, ok := (*m)[key]
		return doc, ok
	}
}

func (c *Cached) put(key string, doc *schema.Document) {
	switch c.strategy {
	case strategyLRU:
		c.lru.Add(key, doc)
	default:
		for {
			old := c.snapshot.Load()
			next := make(map[string]*schema.Document, len(*old)+1)
			for k, v := range *old {
				next[k] = v
			}
			next[key] = doc
			if c.snapshot.CompareAndSwap(old, &next) {
				return
			}
		}
	}
}
