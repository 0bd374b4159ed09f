// Package gitcore is a read-only access layer over a Git object store: ref
// resolution, loose/pack object reading, delta resolution, object parsing,
// and index/working-directory status (spec §1). It never shells out to git
// and never writes to the repository.
package gitcore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/coldforge/gitcore/cache"
	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/gitindex"
	"github.com/coldforge/gitcore/handlecache"
	"github.com/coldforge/gitcore/ignore"
	"github.com/coldforge/gitcore/looseobject"
	"github.com/coldforge/gitcore/object"
	"github.com/coldforge/gitcore/pack"
	"github.com/coldforge/gitcore/plumbing"
	"github.com/coldforge/gitcore/refs"
	"github.com/coldforge/gitcore/status"
)

// Repository is the entry point for reading a single Git object store:
// either a normal working copy (".git" plus its worktree) or a bare
// repository. It owns the file handle cache, pack set, loose object store,
// and reference resolver backing it, and must be closed when no longer
// needed.
type Repository struct {
	fs      filesystem.FileSystem
	gitDir  string
	workDir string
	bare    bool

	opts     Options
	handles  *handlecache.Cache
	loose    *looseobject.Store
	packs    *pack.Set
	resolver *refs.Resolver
	objCache *cache.ObjectCache

	closed int32
}

// Open locates the ".git" directory reachable from path (a worktree root, a
// linked worktree, or a bare repository directory itself) and opens every
// leaf component against it.
func Open(path string, opts ...Option) (*Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	fs := o.FileSystem

	gitDir, workDir, bare, err := resolveGitDir(fs, path)
	if err != nil {
		return nil, err
	}

	handles := handlecache.New(fs, o.HandleCacheCapacity)
	objectsDir := fs.Join(gitDir, "objects")
	loose := looseobject.New(fs, objectsDir)

	// DiscoverSet tolerates a missing pack directory (ListDir yields an empty
	// slice rather than an error), so a repository with no packs yet still
	// opens with a usable, empty Set.
	packDir := fs.Join(objectsDir, "pack")
	packs, err := pack.DiscoverSet(fs, handles, packDir, pack.WithMaxDeltaDepth(o.MaxDeltaDepth))
	if err != nil {
		return nil, err
	}

	objCache, err := cache.New()
	if err != nil {
		return nil, fmt.Errorf("gitcore: create object cache: %w", err)
	}

	o.Logger.WithField("gitDir", gitDir).Debug("gitcore: repository opened")

	r := &Repository{
		fs:       fs,
		gitDir:   gitDir,
		workDir:  workDir,
		bare:     bare,
		opts:     o,
		handles:  handles,
		loose:    loose,
		packs:    packs,
		resolver: refs.New(fs, gitDir, o.SymbolicRefMaxHops),
		objCache: objCache,
	}
	return r, nil
}

// resolveGitDir locates the ".git" directory for path, per spec §6: path may
// be a worktree root (containing a ".git" directory or, for a linked
// worktree, a ".git" file with a "gitdir: ..." redirect), or a bare
// repository directory itself.
func resolveGitDir(fs filesystem.FileSystem, path string) (gitDir, workDir string, bare bool, err error) {
	headPath := fs.Join(path, "HEAD")
	objectsPath := fs.Join(path, "objects")
	if fs.Exists(headPath) && fs.Exists(objectsPath) {
		return path, "", true, nil
	}

	dotGit := fs.Join(path, ".git")
	if !fs.Exists(dotGit) {
		return "", "", false, fmt.Errorf("gitcore: %q is not a git repository", path)
	}
	info, err := fs.Metadata(dotGit)
	if err != nil {
		return "", "", false, plumbing.NewIoError(dotGit, err)
	}
	if info.Mode.IsDir() {
		return dotGit, path, false, nil
	}

	line, err := readFirstLine(fs, dotGit)
	if err != nil {
		return "", "", false, plumbing.NewIoError(dotGit, err)
	}
	const prefix = "gitdir: "
	if len(line) <= len(prefix) || line[:len(prefix)] != prefix {
		return "", "", false, fmt.Errorf("gitcore: malformed .git file at %q", dotGit)
	}
	target := line[len(prefix):]
	if !fs.Exists(fs.Join(target, "HEAD")) {
		target = fs.Join(path, target)
	}
	return target, path, false, nil
}

// checkOpen returns plumbing.ErrClosed once Close has run, the weak-handle
// guard spec §9 calls for instead of keeping every derived record alive past
// its repository's lifetime.
func (r *Repository) checkOpen() error {
	if atomic.LoadInt32(&r.closed) != 0 {
		return plumbing.ErrClosed
	}
	return nil
}

// Close releases every open file handle and cache this Repository holds.
// Records already obtained from it (Commit, TreeRecord, ...) remain valid
// Go values, but any further Repository method returns plumbing.ErrClosed.
func (r *Repository) Close() error {
	if !atomic.CompareAndSwapInt32(&r.closed, 0, 1) {
		return nil
	}
	r.handles.Dispose()
	r.objCache.Close()
	r.opts.Logger.WithField("gitDir", r.gitDir).Debug("gitcore: repository closed")
	return nil
}

// Config reads ".git/config".
func (r *Repository) Config() (*refs.Config, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return refs.ReadConfig(r.fs, r.gitDir)
}

// Reference reads a single reference by full name without following
// symbolic links.
func (r *Repository) Reference(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.resolver.Reference(name)
}

// Resolve follows a reference (symbolic or not) down to a direct hash
// reference.
func (r *Repository) Resolve(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.resolver.Resolve(name)
}

// HEAD resolves the repository's current HEAD to a direct reference.
func (r *Repository) HEAD() (*plumbing.Reference, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return r.resolver.HEAD()
}

// rawObject is the cache.ObjectCache payload for a not-yet-parsed object: it
// saves re-inflating/re-delta-resolving an object whose typed record has not
// been requested, or has been evicted, while a second request for its raw
// bytes arrives (e.g. a Commit call after its parsed record was evicted).
type rawObject struct {
	kind object.Kind
	data []byte
}

// readRaw resolves id to its kind and fully-materialized bytes, trying the
// loose object store first (spec §4.4) and falling back to the pack set
// (spec §4.3.5). A cached rawObject hit short-circuits re-reading and
// re-inflating entirely.
func (r *Repository) readRaw(ctx context.Context, id plumbing.Hash) (object.Kind, []byte, error) {
	if err := r.checkOpen(); err != nil {
		return 0, nil, err
	}
	if err := ctx.Err(); err != nil {
		return 0, nil, plumbing.ErrCancelled
	}

	if v, ok := r.objCache.Get(id); ok {
		if raw, ok := v.(rawObject); ok {
			return raw.kind, raw.data, nil
		}
	}

	if r.loose.Has(id) {
		k, _, mem, err := r.loose.Get(id)
		if err != nil {
			return 0, nil, err
		}
		defer mem.Close()
		data, err := io.ReadAll(mem)
		if err != nil {
			return 0, nil, err
		}
		kind := object.KindFromString(string(k))
		r.objCache.Put(id, rawObject{kind: kind, data: data})
		return kind, data, nil
	}

	pk, data, err := r.packs.Get(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	kind := object.Kind(pk)
	r.objCache.Put(id, rawObject{kind: kind, data: data})
	return kind, data, nil
}

// Commit parses and returns the commit object named by id.
func (r *Repository) Commit(ctx context.Context, id plumbing.Hash) (*Commit, error) {
	if v, ok := r.objCache.Get(commitCacheKey(id)); ok {
		if c, ok := v.(*object.CommitRecord); ok {
			return &Commit{CommitRecord: c, repo: r}, nil
		}
	}
	kind, data, err := r.readRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind != object.Commit {
		return nil, &plumbing.MalformedObjectError{ID: id, Reason: fmt.Sprintf("expected commit, got %s", kind)}
	}
	c, err := object.ParseCommit(id, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	r.objCache.Put(commitCacheKey(id), c)
	return &Commit{CommitRecord: c, repo: r}, nil
}

// Tree parses and returns the tree object named by id. It implements
// status.TreeResolver so Status can expand HEAD's tree without a separate
// adapter.
func (r *Repository) Tree(ctx context.Context, id plumbing.Hash) (*object.TreeRecord, error) {
	if v, ok := r.objCache.Get(treeCacheKey(id)); ok {
		if t, ok := v.(*object.TreeRecord); ok {
			return t, nil
		}
	}
	kind, data, err := r.readRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind != object.Tree {
		return nil, &plumbing.MalformedObjectError{ID: id, Reason: fmt.Sprintf("expected tree, got %s", kind)}
	}
	t, err := object.ParseTree(id, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	r.objCache.Put(treeCacheKey(id), t)
	return t, nil
}

// Tag parses and returns the annotated tag object named by id.
func (r *Repository) Tag(ctx context.Context, id plumbing.Hash) (*object.TagRecord, error) {
	if v, ok := r.objCache.Get(tagCacheKey(id)); ok {
		if t, ok := v.(*object.TagRecord); ok {
			return t, nil
		}
	}
	kind, data, err := r.readRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	if kind != object.Tag {
		return nil, &plumbing.MalformedObjectError{ID: id, Reason: fmt.Sprintf("expected tag, got %s", kind)}
	}
	t, err := object.ParseTag(id, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	r.objCache.Put(tagCacheKey(id), t)
	return t, nil
}

// Blob returns a blob's size and a stream over its content. A loose blob is
// inflated as the stream is read; a packed blob is fully resolved into
// memory first (see pack.Packfile.Stream) and the stream reads from that.
func (r *Repository) Blob(ctx context.Context, id plumbing.Hash) (*object.BlobRecord, io.ReadCloser, error) {
	if err := r.checkOpen(); err != nil {
		return nil, nil, err
	}
	if r.loose.Has(id) {
		k, size, mem, err := r.loose.Get(id)
		if err != nil {
			return nil, nil, err
		}
		if k != looseobject.KindBlob {
			_ = mem.Close()
			return nil, nil, &plumbing.MalformedObjectError{ID: id, Reason: fmt.Sprintf("expected blob, got %s", k)}
		}
		return object.NewBlob(id, size), mem, nil
	}

	kind, stream, size, err := r.packs.Stream(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if kind != pack.KindBlob {
		_ = stream.Close()
		return nil, nil, &plumbing.MalformedObjectError{ID: id, Reason: fmt.Sprintf("expected blob, got %s", kind)}
	}
	return object.NewBlob(id, size), stream, nil
}

// Status computes the three-way working-directory status against the index
// and HEAD's tree (spec §4.7.2). It is only meaningful for a non-bare
// repository with a working directory.
func (r *Repository) Status(ctx context.Context) (*status.Result, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	if r.bare {
		return nil, fmt.Errorf("gitcore: status requires a working directory, repository is bare")
	}

	idx, err := r.readIndex()
	if err != nil {
		return nil, err
	}

	var headTree plumbing.Hash
	head, err := r.resolver.HEAD()
	switch {
	case err == plumbing.ErrAbsent:
		// No commits yet: every index entry reports Added (spec §9).
	case err != nil:
		return nil, err
	default:
		commit, err := r.Commit(ctx, head.Hash())
		if err != nil {
			return nil, err
		}
		headTree = commit.TreeID
	}

	filter, err := r.ignorePipeline()
	if err != nil {
		return nil, err
	}

	return status.Compute(ctx, r.fs, r.workDir, idx, headTree, r, filter)
}

func (r *Repository) readIndex() (*gitindex.Index, error) {
	p := r.fs.Join(r.gitDir, "index")
	h, err := r.fs.OpenRead(p)
	if err != nil {
		return nil, plumbing.NewIoError(p, err)
	}
	defer h.Close()
	return gitindex.Parse(h)
}

// ignorePipeline builds the ordered ignore filter the status engine's
// untracked-file scan consults: the built-in common set, then
// ".git/info/exclude", then the worktree root's ".gitignore" (spec §4.7.3).
// Nested ".gitignore" files are not descended into separately here; the
// common case of a root-level file plus the built-in set covers the spec's
// named scenarios, and per-directory layering is a natural follow-on.
func (r *Repository) ignorePipeline() (*ignore.Pipeline, error) {
	pl := ignore.NewPipeline(ignore.CommonFilter())

	excludeLines, err := ignore.ReadIgnoreFile(r.fs, r.fs.Join(r.gitDir, "info", "exclude"))
	if err != nil {
		return nil, err
	}
	if len(excludeLines) > 0 {
		pl.Append(ignore.NewPatternFilter(excludeLines))
	}

	gitignoreLines, err := ignore.ReadIgnoreFile(r.fs, r.fs.Join(r.workDir, ".gitignore"))
	if err != nil {
		return nil, err
	}
	if len(gitignoreLines) > 0 {
		pl.Append(ignore.NewPatternFilter(gitignoreLines))
	}

	return pl, nil
}

func commitCacheKey(id plumbing.Hash) plumbing.Hash { return recordCacheKey(id, 'c') }
func treeCacheKey(id plumbing.Hash) plumbing.Hash   { return recordCacheKey(id, 't') }
func tagCacheKey(id plumbing.Hash) plumbing.Hash    { return recordCacheKey(id, 'g') }

// recordCacheKey derives a parsed-record cache key from id distinct from the
// raw-bytes key readRaw uses, by flipping id's first byte against tag.
func recordCacheKey(id plumbing.Hash, tag byte) plumbing.Hash {
	k := id
	k[0] ^= tag
	return k
}
