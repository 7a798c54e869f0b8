package loader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/jdm/loader"
	"github.com/flowgraph/jdm/schema"
)

func mustDoc(t *testing.T) *schema.Document {
	t.Helper()
	doc, err := schema.Parse([]byte(`{"id":"d","name":"d","nodes":{},"edges":[]}`))
	require.NoError(t, err)
	return doc
}

func TestMapLoaderLoadAndNotFound(t *testing.T) {
	m := loader.NewMap()
	doc := mustDoc(t)
	m.Put("key1", doc)

	got, err := m.Load("key1")
	require.NoError(t, err)
	assert.Same(t, doc, got)

	_, err = m.Load("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrNotFound)
}

type countingLoader struct {
	loader.Loader
	calls int
}

func (c *countingLoader) Load(key string) (*schema.Document, error) {
	c.calls++
	return c.Loader.Load(key)
}

func TestCachedLRUAvoidsRepeatedLoads(t *testing.T) {
	m := loader.NewMap()
	m.Put("k", mustDoc(t))
	counting := &countingLoader{Loader: m}
	cached := loader.NewCached(counting, loader.WithLRU(8))

	_, err := cached.Load("k")
	require.NoError(t, err)
	_, err = cached.Load("k")
	require.NoError(t, err)

	assert.Equal(t, 1, counting.calls)
}

func TestCachedUnboundedSnapshotCache(t *testing.T) {
	m := loader.NewMap()
	m.Put("k", mustDoc(t))
	counting := &countingLoader{Loader: m}
	cached := loader.NewCached(counting, loader.WithUnboundedCache())

	_, err := cached.Load("k")
	require.NoError(t, err)
	_, err = cached.Load("k")
	require.NoError(t, err)

	assert.Equal(t, 1, counting.calls)
}

type noCacheLoader struct {
	*loader.Map
	calls int
}

func (n *noCacheLoader) Load(key string) (*schema.Document, error) {
	n.calls++
	return n.Map.Load(key)
}

func (n *noCacheLoader) NoCache() bool { return true }

func TestCachedHonorsNoCacheOptOut(t *testing.T) {
	m := loader.NewMap()
	m.Put("k", mustDoc(t))
	nc := &noCacheLoader{Map: m}
	cached := loader.NewCached(nc)

	_, err := cached.Load("k")
	require.NoError(t, err)
	_, err = cached.Load("k")
	require.NoError(t, err)

	assert.Equal(t, 2, nc.calls)
}
