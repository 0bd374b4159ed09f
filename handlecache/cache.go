// Package handlecache implements the bounded LRU of open read-handles
// described in the spec's file-handle-cache component: re-reading the same
// pack or index file never reopens it from the underlying file system.
package handlecache

import (
	"container/list"
	"runtime"
	"sync"

	"github.com/coldforge/gitcore/filesystem"
)

// DefaultCapacity is the hardware-concurrency-derived default, with a floor
// of 4 as the spec requires.
func DefaultCapacity() int {
	if n := runtime.NumCPU(); n >= 4 {
		return n
	}
	return 4
}

type entry struct {
	path   string
	handle filesystem.ReadHandle
}

// Cache is a single-mutex bounded LRU of open ReadHandles keyed by absolute
// path. Open detaches a cached handle (it will not be double-counted against
// capacity while in use); Release reinserts it at the front, seeked to 0.
type Cache struct {
	fs       filesystem.FileSystem
	capacity int

	mu      sync.Mutex
	order   *list.List // front = most recently released
	byPath  map[string]*list.Element
	inUse   map[string]bool
}

// New creates a Cache bounded at capacity (the caller should use
// DefaultCapacity() when the configuration does not specify one).
func New(fs filesystem.FileSystem, capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity()
	}
	return &Cache{
		fs:       fs,
		capacity: capacity,
		order:    list.New(),
		byPath:   make(map[string]*list.Element),
		inUse:    make(map[string]bool),
	}
}

// Open returns a handle for path, reusing a cached one (detaching it from
// the LRU) if present, or opening a fresh one via the underlying FileSystem.
func (c *Cache) Open(path string) (filesystem.ReadHandle, error) {
	c.mu.Lock()
	if el, ok := c.byPath[path]; ok {
		c.order.Remove(el)
		delete(c.byPath, path)
		c.inUse[path] = true
		h := el.Value.(*entry).handle
		c.mu.Unlock()
		if _, err := h.Seek(0, 0); err != nil {
			return nil, err
		}
		return h, nil
	}
	c.inUse[path] = true
	c.mu.Unlock()

	h, err := c.fs.OpenRead(path)
	if err != nil {
		c.mu.Lock()
		delete(c.inUse, path)
		c.mu.Unlock()
		return nil, err
	}
	return h, nil
}

// Release returns handle to the cache, seeking it to offset 0 and placing it
// at the front of the LRU. If the cache is at capacity, the least-recently
// released handle is closed to make room.
func (c *Cache) Release(path string, handle filesystem.ReadHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.inUse[path] {
		// We are not tracking this path (e.g. another handle for the same
		// path was already released, Dispose ran between Open and Release,
		// or it was never opened through this cache): close it directly
		// rather than caching it.
		_ = handle.Close()
		return
	}
	delete(c.inUse, path)

	if el, ok := c.byPath[path]; ok {
		// Another handle for the same path is already cached; keep the one
		// already there and close this one to avoid leaking descriptors.
		_ = el
		_ = handle.Close()
		return
	}

	for c.order.Len() >= c.capacity {
		back := c.order.Back()
		if back == nil {
			break
		}
		old := back.Value.(*entry)
		c.order.Remove(back)
		delete(c.byPath, old.path)
		_ = old.handle.Close()
	}

	el := c.order.PushFront(&entry{path: path, handle: handle})
	c.byPath[path] = el
}

// Dispose closes every handle currently cached (handles currently checked
// out via Open are not affected — the caller owns those until Release).
func (c *Cache) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for el := c.order.Front(); el != nil; el = el.Next() {
		_ = el.Value.(*entry).handle.Close()
	}
	c.order.Init()
	c.byPath = make(map[string]*list.Element)
	c.inUse = make(map[string]bool)
}
