// Package loader implements the loader seam (spec §4.G): resolving a
// decision key to a parsed JDM document, plus a concrete in-memory
// loader and a caching wrapper so the engine is runnable and testable
// without a filesystem.
package loader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/flowgraph/jdm/schema"
)

// ErrNotFound is the sentinel a Loader returns when it cannot resolve a
// key to a document.
var ErrNotFound = errors.New("document not found")

// Loader resolves a decision key to a parsed JDM document.
type Loader interface {
	Load(key string) (*schema.Document, error)
}

// noCacher is implemented by a Loader that wants to opt out of the
// caching done by a Cached wrapper, per spec §4.G ("unless the loader
// opts out of caching").
type noCacher interface {
	NoCache() bool
}

// Map is an in-memory, map-keyed Loader: the minimal concrete
// implementation a library needs to be runnable without a filesystem.
type Map struct {
	mu   sync.RWMutex
	docs map[string]*schema.Document
}

// NewMap builds an empty Map loader.
func NewMap() *Map {
	return &Map{docs: map[string]*schema.Document{}}
}

// Put registers a document under key, replacing any prior entry.
func (m *Map) Put(key string, doc *schema.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = doc
}

// Load implements Loader.
func (m *Map) Load(key string) (*schema.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, ErrNotFound)
	}
	return doc, nil
}
