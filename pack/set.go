package pack

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/handlecache"
	"github.com/coldforge/gitcore/plumbing"
)

// Set owns every pack under a repository's objects/pack directory, probing
// them in order until an object is found (spec §4.3.5). Parsed indices and
// pack handles are cached for the life of the repository session.
type Set struct {
	mu    sync.RWMutex
	packs []*Packfile
}

// Option configures a Set at discovery time, mirroring the teacher's
// functional-option construction of its Database type.
type Option func(*discoverConfig)

type discoverConfig struct {
	maxDeltaDepth int
}

// WithMaxDeltaDepth overrides DefaultMaxDeltaDepth for every pack the Set
// opens.
func WithMaxDeltaDepth(depth int) Option {
	return func(c *discoverConfig) { c.maxDeltaDepth = depth }
}

// DiscoverSet opens every pack-*.idx / pack-*.pack pair found directly under
// packDir, sorted by name for deterministic probe order.
func DiscoverSet(fs filesystem.FileSystem, handles *handlecache.Cache, packDir string, opts ...Option) (*Set, error) {
	cfg := discoverConfig{maxDeltaDepth: DefaultMaxDeltaDepth}
	for _, opt := range opts {
		opt(&cfg)
	}

	entries, err := fs.ListDir(packDir)
	if err != nil {
		return nil, plumbing.NewIoError(packDir, err)
	}
	var idxNames []string
	for _, e := range entries {
		if !e.IsDir && strings.HasPrefix(e.Name, "pack-") && strings.HasSuffix(e.Name, ".idx") {
			idxNames = append(idxNames, e.Name)
		}
	}
	sort.Strings(idxNames)

	s := &Set{}
	for _, idxName := range idxNames {
		base := strings.TrimSuffix(idxName, ".idx")
		idxPath := fs.Join(packDir, idxName)
		packPath := fs.Join(packDir, base+".pack")
		if !fs.Exists(packPath) {
			continue
		}
		pf, err := Open(fs, handles, packPath, idxPath, cfg.maxDeltaDepth)
		if err != nil {
			return nil, err
		}
		s.packs = append(s.packs, pf)
	}
	return s, nil
}

// Has reports whether any pack in the set contains id.
func (s *Set) Has(id plumbing.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.packs {
		if p.Has(id) {
			return true
		}
	}
	return false
}

// Get probes each pack in order, resolving ref-delta bases against the
// whole set (so a base in a different pack than its delta resolves
// correctly).
func (s *Set) Get(ctx context.Context, id plumbing.Hash) (Kind, []byte, error) {
	s.mu.RLock()
	packs := s.packs
	s.mu.RUnlock()
	for _, p := range packs {
		if p.Has(id) {
			return p.Get(ctx, id, s)
		}
	}
	return 0, nil, &plumbing.ObjectNotFoundError{ID: id}
}

// Base implements BaseLookup by probing every pack in the set, so an entry
// in one pack may ref-delta against a base stored in another.
func (s *Set) Base(ctx context.Context, id plumbing.Hash) (Kind, []byte, error) {
	return s.Get(ctx, id)
}

// Stream is the streaming counterpart to Get.
func (s *Set) Stream(ctx context.Context, id plumbing.Hash) (Kind, io.ReadCloser, int64, error) {
	s.mu.RLock()
	packs := s.packs
	s.mu.RUnlock()
	for _, p := range packs {
		if p.Has(id) {
			return p.Stream(ctx, id, s)
		}
	}
	return 0, nil, 0, &plumbing.ObjectNotFoundError{ID: id}
}
