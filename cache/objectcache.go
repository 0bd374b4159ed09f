// Package cache memoizes parsed object records by id, so a commit or tree
// that is traversed repeatedly (parent chains, tree diffing) is decoded
// from its raw bytes only once per repository session. Grounded on the
// teacher's modules/zeta/backend/odb.go / decode.go "metaLRU" pattern.
package cache

import (
	"github.com/coldforge/gitcore/plumbing"
	"github.com/dgraph-io/ristretto/v2"
)

// DefaultNumCounters and DefaultMaxCost mirror the teacher's odb.go
// constants; they size the cache generously relative to typical working
// sets of commits/trees/tags (each entry costs 1, so MaxCost is simply an
// item count cap).
const (
	DefaultNumCounters = 100_000
	DefaultMaxCost     = 100_000
	DefaultBufferItems = 64
)

// ObjectCache holds decoded records keyed by object id. A zero ObjectCache
// (via New with default sizing) is safe for concurrent use; ristretto
// itself is goroutine-safe.
type ObjectCache struct {
	c *ristretto.Cache[string, any]
}

// New creates an ObjectCache sized per the Default* constants.
func New() (*ObjectCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: DefaultNumCounters,
		MaxCost:     DefaultMaxCost,
		BufferItems: DefaultBufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &ObjectCache{c: c}, nil
}

// Get returns the cached record for id, if present.
func (oc *ObjectCache) Get(id plumbing.Hash) (any, bool) {
	if oc == nil || oc.c == nil {
		return nil, false
	}
	return oc.c.Get(id.String())
}

// Put stores record under id. Cost is always 1: every record (commit, tree,
// tag, blob header) counts equally against MaxCost, mirroring the teacher's
// own fromCache/store pair.
func (oc *ObjectCache) Put(id plumbing.Hash, record any) {
	if oc == nil || oc.c == nil {
		return
	}
	_ = oc.c.Set(id.String(), record, 1)
}

// Close releases the cache's background goroutines.
func (oc *ObjectCache) Close() {
	if oc == nil || oc.c == nil {
		return
	}
	oc.c.Close()
}
