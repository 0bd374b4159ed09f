// Package status computes the three-way working-directory status the spec
// names in §4.7.2: staged changes (index vs. HEAD's tree), unstaged changes
// (worktree vs. index), and untracked files (worktree minus index minus
// ignored paths). It sits parallel to the reference resolver and object
// parser, consuming both plus gitindex, composing rather than owning any of
// their I/O.
package status

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/gitindex"
	"github.com/coldforge/gitcore/ignore"
	"github.com/coldforge/gitcore/object"
	"github.com/coldforge/gitcore/plumbing"
)

// Status classifies one path's working-directory state (spec §3).
type Status int

const (
	Unmodified Status = iota
	Modified
	Added
	Deleted
	Renamed
	Copied
	TypeChanged
	Untracked
	Ignored
)

func (s Status) String() string {
	switch s {
	case Unmodified:
		return "unmodified"
	case Modified:
		return "modified"
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	case Copied:
		return "copied"
	case TypeChanged:
		return "type-changed"
	case Untracked:
		return "untracked"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// FileStatus is one path's classification, with whichever hashes are known
// (spec §3 Working-directory file status).
type FileStatus struct {
	Path         string
	Status       Status
	IndexHash    *plumbing.Hash
	WorktreeHash *plumbing.Hash
}

// Result is the three independent sets the status engine produces.
type Result struct {
	Staged    []FileStatus
	Unstaged  []FileStatus
	Untracked []FileStatus
}

// TreeResolver fetches a tree object by id, the one dependency status has on
// the object/pack/loose layers: it needs HEAD's tree expanded recursively to
// build the staged-change comparison set.
type TreeResolver interface {
	Tree(ctx context.Context, id plumbing.Hash) (*object.TreeRecord, error)
}

type headFile struct {
	id   plumbing.Hash
	mode object.Mode
}

// flattenTree recursively expands tree id into a flat path -> (blob id,
// mode) map, joining names with "/". Submodule (gitlink) entries are kept
// as leaves — their ChildID is a commit, not a blob, but comparison by id
// works identically.
func flattenTree(ctx context.Context, trees TreeResolver, id plumbing.Hash, prefix string, out map[string]headFile) error {
	t, err := trees.Tree(ctx, id)
	if err != nil {
		return err
	}
	for _, e := range t.Entries {
		path := e.Name
		if prefix != "" {
			path = prefix + "/" + e.Name
		}
		if e.Kind() == object.EntryTree {
			if err := flattenTree(ctx, trees, e.ChildID, path, out); err != nil {
				return err
			}
			continue
		}
		out[path] = headFile{id: e.ChildID, mode: e.Mode}
	}
	return nil
}

// Compute runs the full three-way comparison described in spec §4.7.2.
// worktreeRoot is the absolute path of the working directory (not the
// ".git" directory). headTreeID is the id of HEAD's commit's tree; pass
// plumbing.ZeroHash for a repository with no commits yet (every index
// entry is then Added, matching Git's behavior on an empty repository).
func Compute(
	ctx context.Context,
	fs filesystem.FileSystem,
	worktreeRoot string,
	idx *gitindex.Index,
	headTreeID plumbing.Hash,
	trees TreeResolver,
	filter *ignore.Pipeline,
) (*Result, error) {
	head := make(map[string]headFile)
	if !headTreeID.IsZero() {
		if err := flattenTree(ctx, trees, headTreeID, "", head); err != nil {
			return nil, fmt.Errorf("status: expand HEAD tree: %w", err)
		}
	}

	res := &Result{}
	indexed := make(map[string]*gitindex.Entry, len(idx.Entries))
	for _, e := range idx.Entries {
		if e.Stage != gitindex.StageNormal {
			continue
		}
		indexed[e.Path] = e
	}

	computeStaged(indexed, head, res)
	if err := computeUnstaged(ctx, fs, worktreeRoot, indexed, res); err != nil {
		return nil, err
	}
	if err := computeUntracked(fs, worktreeRoot, "", indexed, filter, res); err != nil {
		return nil, err
	}

	return res, nil
}

func computeStaged(indexed map[string]*gitindex.Entry, head map[string]headFile, res *Result) {
	for path, e := range indexed {
		id := e.ID
		hf, ok := head[path]
		switch {
		case !ok:
			// Per spec §9's resolved Open Question, a newly staged file
			// always reports Added, even when its content happens to
			// match what a same-named HEAD entry would have held.
			res.Staged = append(res.Staged, FileStatus{Path: path, Status: Added, IndexHash: &id})
		case hf.id == e.ID && uint32(hf.mode) == e.Mode:
			// Unchanged from HEAD: omitted from the staged set.
		default:
			res.Staged = append(res.Staged, FileStatus{Path: path, Status: Modified, IndexHash: &id})
		}
	}
	for path, hf := range head {
		if _, ok := indexed[path]; !ok {
			id := hf.id
			res.Staged = append(res.Staged, FileStatus{Path: path, Status: Deleted, IndexHash: &id})
		}
	}
}

func computeUnstaged(ctx context.Context, fs filesystem.FileSystem, root string, indexed map[string]*gitindex.Entry, res *Result) error {
	for path, e := range indexed {
		if err := ctx.Err(); err != nil {
			return plumbing.ErrCancelled
		}
		full := fs.Join(root, path)
		if !fs.Exists(full) {
			id := e.ID
			res.Unstaged = append(res.Unstaged, FileStatus{Path: path, Status: Deleted, IndexHash: &id})
			continue
		}
		info, err := fs.Metadata(full)
		if err != nil {
			// A path that vanished between Exists and Metadata is treated
			// the same as "missing" rather than surfaced as an error
			// (spec §7: the status engine tolerates individual stat
			// failures mid-scan).
			id := e.ID
			res.Unstaged = append(res.Unstaged, FileStatus{Path: path, Status: Deleted, IndexHash: &id})
			continue
		}
		if uint32(info.Size) == e.Size && info.ModTime.Unix() == int64(e.MTimeSec) && modesEqual(info.Mode, e.Mode) {
			continue
		}
		h, err := hashWorktreeBlob(fs, full)
		if err != nil {
			return fmt.Errorf("status: hash %s: %w", path, err)
		}
		if h == e.ID {
			continue
		}
		indexHash := e.ID
		res.Unstaged = append(res.Unstaged, FileStatus{Path: path, Status: Modified, IndexHash: &indexHash, WorktreeHash: &h})
	}
	return nil
}

// hashWorktreeBlob computes the blob object id a working-tree file would
// have, per Git's "blob <size>\0<content>" framing (spec §4.7.2 step 2).
func hashWorktreeBlob(fs filesystem.FileSystem, path string) (plumbing.Hash, error) {
	info, err := fs.Metadata(path)
	if err != nil {
		return plumbing.Hash{}, err
	}
	h, err := fs.OpenRead(path)
	if err != nil {
		return plumbing.Hash{}, err
	}
	defer h.Close()

	hasher := plumbing.NewHasher()
	fmt.Fprintf(&hasher, "blob %d\x00", info.Size)
	if _, err := io.Copy(&hasher, h); err != nil {
		return plumbing.Hash{}, err
	}
	return hasher.Sum(), nil
}

// modesEqual compares a working-tree file's mode against an index entry's
// git mode, per the (mtime, ctime, size, mode) short-circuit of spec
// §4.7.2 step 2. Git only distinguishes the executable bit for regular
// files on disk, so this reduces to comparing that one bit.
func modesEqual(fsMode os.FileMode, indexMode uint32) bool {
	return (fsMode.Perm()&0o111 != 0) == (indexMode&0o111 != 0)
}

func computeUntracked(
	fs filesystem.FileSystem,
	root, rel string,
	indexed map[string]*gitindex.Entry,
	filter *ignore.Pipeline,
	res *Result,
) error {
	dir := fs.Join(root, rel)
	entries, err := fs.ListDir(dir)
	if err != nil {
		return fmt.Errorf("status: list %s: %w", dir, err)
	}
	for _, de := range entries {
		if rel == "" && de.Name == ".git" {
			continue
		}
		path := de.Name
		if rel != "" {
			path = rel + "/" + de.Name
		}
		if de.IsDir {
			decision := Unmodified
			if filter != nil && filter.Decide(path, true) == ignore.Exclude {
				decision = Ignored
			}
			if decision == Ignored {
				// A matched directory is never descended into — every
				// path beneath it is implicitly ignored too.
				continue
			}
			if err := computeUntracked(fs, root, path, indexed, filter, res); err != nil {
				return err
			}
			continue
		}
		if _, tracked := indexed[path]; tracked {
			continue
		}
		if filter != nil && filter.Decide(path, false) == ignore.Exclude {
			res.Untracked = append(res.Untracked, FileStatus{Path: path, Status: Ignored})
			continue
		}
		h, err := hashWorktreeBlob(fs, fs.Join(root, path))
		if err != nil {
			continue
		}
		res.Untracked = append(res.Untracked, FileStatus{Path: path, Status: Untracked, WorktreeHash: &h})
	}
	return nil
}
