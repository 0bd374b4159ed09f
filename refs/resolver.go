// Package refs resolves Git references: loose files under refs/, the
// packed-refs file (including annotated-tag peel binding), worktree-local
// HEADs, and symbolic-ref chains, grounded on
// modules/zeta/refs/filesystem.go's fsBackend.
package refs

import (
	"bufio"
	"fmt"
	"path"
	"strings"

	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/plumbing"
)

const (
	packedRefsName = "packed-refs"
	refsDir        = "refs"
	worktreesDir   = "worktrees"

	// DefaultMaxSymbolicHops bounds HEAD/symbolic-ref chain-following, a
	// configurable analogue of the teacher's MaxResolveRecursion constant.
	DefaultMaxSymbolicHops = 5
)

// peeled binds a packed annotated tag's reference hash to the commit the
// tag object ultimately points at (the immediately-following "^<hex>" line
// in packed-refs). The teacher's fsBackend.processLine discards these
// lines outright ("annotated tag commit of the previous line - ignore");
// this resolver instead records the binding, since annotated tags need it
// to answer PeeledID without opening the tag object.
type peeled struct {
	refName plumbing.ReferenceName
	commit  plumbing.Hash
}

// Resolver reads references from a single repository's git directory.
type Resolver struct {
	fs          filesystem.FileSystem
	gitDir      string
	maxHops     int
	packedCache map[plumbing.ReferenceName]*plumbing.Reference
	peeledCache map[plumbing.ReferenceName]plumbing.Hash
	packedRead  bool
}

// New returns a Resolver rooted at gitDir (the ".git" directory, not the
// worktree root).
func New(fs filesystem.FileSystem, gitDir string, maxHops int) *Resolver {
	if maxHops <= 0 {
		maxHops = DefaultMaxSymbolicHops
	}
	return &Resolver{fs: fs, gitDir: gitDir, maxHops: maxHops}
}

// Reference reads a single reference by its full name, without following
// symbolic links. Returns plumbing.ErrAbsent if it does not exist.
func (r *Resolver) Reference(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	if ref, err := r.readLoose(name); err == nil {
		return ref, nil
	} else if err != plumbing.ErrAbsent {
		return nil, err
	}

	if err := r.ensurePackedLoaded(); err != nil {
		return nil, err
	}
	if ref, ok := r.packedCache[name]; ok {
		return ref, nil
	}
	return nil, plumbing.ErrAbsent
}

// Resolve follows symbolic references starting at name until it reaches a
// direct (hash) reference, up to r.maxHops hops.
func (r *Resolver) Resolve(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	for i := 0; i <= r.maxHops; i++ {
		ref, err := r.Reference(name)
		if err != nil {
			return nil, err
		}
		if ref.Type() != plumbing.SymbolicReference {
			return ref, nil
		}
		name = ref.Target()
	}
	return nil, fmt.Errorf("refs: exceeded %d symbolic-ref hops resolving %q", r.maxHops, name)
}

// HEAD resolves the repository's HEAD to a direct reference. It honors
// worktree-local HEAD files the same way the teacher's backend treats the
// main repository's HEAD, by reading "<gitDir>/HEAD" first.
//
// A detached HEAD (the file holds a hex id rather than a "ref: ..."
// redirect) produces a reference whose name is the commit id itself (spec
// §8's boundary behavior), not the literal "HEAD".
func (r *Resolver) HEAD() (*plumbing.Reference, error) {
	ref, err := r.Resolve(plumbing.HEAD)
	if err != nil {
		return nil, err
	}
	if ref.Name() == plumbing.HEAD && ref.Type() == plumbing.HashReference {
		return plumbing.NewHashReference(plumbing.ReferenceName(ref.Hash().String()), ref.Hash()), nil
	}
	return ref, nil
}

// PeeledID returns the commit a packed annotated tag ultimately points at,
// as recorded by the "^<hex>" line that follows its packed-refs entry. The second
// return value is false when name is not a packed annotated tag peel.
func (r *Resolver) PeeledID(name plumbing.ReferenceName) (plumbing.Hash, bool, error) {
	if err := r.ensurePackedLoaded(); err != nil {
		return plumbing.ZeroHash, false, err
	}
	id, ok := r.peeledCache[name]
	return id, ok, nil
}

// readLoose reads "<gitDir>/<name>" directly, the layout for both HEAD and
// refs/heads/refs/tags/refs/remotes entries before they are packed.
func (r *Resolver) readLoose(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	p := r.fs.Join(r.gitDir, string(name))
	if !r.fs.Exists(p) {
		return nil, plumbing.ErrAbsent
	}
	info, err := r.fs.Metadata(p)
	if err != nil {
		return nil, plumbing.NewIoError(p, err)
	}
	if info.Mode.IsDir() {
		return nil, plumbing.ErrAbsent
	}
	h, err := r.fs.OpenRead(p)
	if err != nil {
		return nil, plumbing.NewIoError(p, err)
	}
	defer h.Close()

	var buf strings.Builder
	br := bufio.NewReader(h)
	if _, err := br.WriteTo(&buf); err != nil {
		return nil, plumbing.NewIoError(p, err)
	}
	line := strings.TrimSpace(buf.String())
	if line == "" {
		return nil, &plumbing.MalformedRefError{Name: string(name), Reason: "empty reference file"}
	}
	return plumbing.NewReferenceFromStrings(string(name), line), nil
}

// ensurePackedLoaded parses packed-refs once and caches every entry,
// including peel bindings.
func (r *Resolver) ensurePackedLoaded() error {
	if r.packedRead {
		return nil
	}
	r.packedRead = true
	r.packedCache = make(map[plumbing.ReferenceName]*plumbing.Reference)
	r.peeledCache = make(map[plumbing.ReferenceName]plumbing.Hash)

	p := r.fs.Join(r.gitDir, packedRefsName)
	if !r.fs.Exists(p) {
		return nil
	}
	h, err := r.fs.OpenRead(p)
	if err != nil {
		return plumbing.NewIoError(p, err)
	}
	defer h.Close()

	sc := bufio.NewScanner(h)
	var lastName plumbing.ReferenceName
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		switch line[0] {
		case '#':
			continue
		case '^':
			if lastName == "" {
				continue
			}
			r.peeledCache[lastName] = plumbing.NewHash(line[1:])
			continue
		default:
			target, name, ok := strings.Cut(line, " ")
			if !ok {
				return &plumbing.MalformedRefError{Name: p, Reason: "packed-refs line missing separator"}
			}
			ref := plumbing.NewReferenceFromStrings(name, target)
			r.packedCache[ref.Name()] = ref
			lastName = ref.Name()
		}
	}
	return sc.Err()
}

// Worktrees lists the linked worktrees registered under
// "<gitDir>/worktrees/<id>", each of which carries its own HEAD file.
func (r *Resolver) Worktrees() ([]string, error) {
	dir := r.fs.Join(r.gitDir, worktreesDir)
	if !r.fs.Exists(dir) {
		return nil, nil
	}
	entries, err := r.fs.ListDir(dir)
	if err != nil {
		return nil, plumbing.NewIoError(dir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			ids = append(ids, e.Name)
		}
	}
	return ids, nil
}

// WorktreeHEAD resolves the HEAD belonging to a linked worktree identified
// by its worktrees/<id> directory name.
func (r *Resolver) WorktreeHEAD(id string) (*plumbing.Reference, error) {
	sub := &Resolver{fs: r.fs, gitDir: path.Join(r.gitDir, worktreesDir, id), maxHops: r.maxHops}
	head, err := sub.readLoose(plumbing.HEAD)
	if err != nil {
		return nil, err
	}
	if head.Type() != plumbing.SymbolicReference {
		return head, nil
	}
	// Symbolic worktree HEADs name refs that live in the shared refs/
	// namespace back in the main git directory, not under worktrees/<id>.
	return r.Resolve(head.Target())
}

// BranchesAndTags returns every local branch and tag reference, merging
// loose files under refs/heads and refs/tags with any packed-refs entries in
// those namespaces. Used by Commit.Containers to enumerate BFS start points.
func (r *Resolver) BranchesAndTags() ([]*plumbing.Reference, error) {
	if err := r.ensurePackedLoaded(); err != nil {
		return nil, err
	}
	seen := make(map[plumbing.ReferenceName]bool)
	var out []*plumbing.Reference

	for _, prefix := range []string{"refs/heads", "refs/tags"} {
		refs, err := r.walkLoose(prefix)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			seen[ref.Name()] = true
			out = append(out, ref)
		}
	}
	for name, ref := range r.packedCache {
		if seen[name] {
			continue
		}
		if name.IsBranch() || name.IsTag() {
			out = append(out, ref)
		}
	}
	return out, nil
}

// walkLoose recursively lists every loose reference file under
// "<gitDir>/<prefix>".
func (r *Resolver) walkLoose(prefix string) ([]*plumbing.Reference, error) {
	var out []*plumbing.Reference
	var walk func(rel string) error
	walk = func(rel string) error {
		dir := r.fs.Join(r.gitDir, rel)
		if !r.fs.Exists(dir) {
			return nil
		}
		entries, err := r.fs.ListDir(dir)
		if err != nil {
			return plumbing.NewIoError(dir, err)
		}
		for _, e := range entries {
			childRel := rel + "/" + e.Name
			if e.IsDir {
				if err := walk(childRel); err != nil {
					return err
				}
				continue
			}
			ref, err := r.readLoose(plumbing.ReferenceName(childRel))
			if err != nil {
				return err
			}
			out = append(out, ref)
		}
		return nil
	}
	if err := walk(prefix); err != nil {
		return nil, err
	}
	return out, nil
}

// IsValidName reports whether name is a well-formed reference name.
func IsValidName(name plumbing.ReferenceName) bool {
	return plumbing.ValidateReferenceName([]byte(name))
}

// shortRule mirrors the teacher's refRevParseRules (modules/zeta/refs/rules.go)
// for producing git's unambiguous short names.
type shortRule struct {
	prefix string
	suffix string
}

var shortRules = []shortRule{
	{},
	{prefix: "refs/"},
	{prefix: "refs/tags/"},
	{prefix: "refs/heads/"},
	{prefix: "refs/remotes/"},
	{prefix: "refs/remotes/", suffix: "/HEAD"},
}

func (ru shortRule) shortName(name string) (string, bool) {
	if !strings.HasPrefix(name, ru.prefix) {
		return "", false
	}
	rest := name[len(ru.prefix):]
	if ru.suffix != "" {
		if !strings.HasSuffix(rest, ru.suffix) {
			return "", false
		}
		rest = strings.TrimSuffix(rest, ru.suffix)
	}
	return rest, rest != ""
}

// ShortName returns name's unambiguous abbreviation the way `git rev-parse
// --abbrev-ref` would, given the full set of known reference names.
func ShortName(name plumbing.ReferenceName, known map[plumbing.ReferenceName]bool, strict bool) string {
	full := string(name)
	for i := len(shortRules) - 1; i > 0; i-- {
		short, ok := shortRules[i].shortName(full)
		if !ok {
			continue
		}
		rulesToFail := 1
		if strict {
			rulesToFail = len(shortRules)
		}
		ambiguous := false
		for j := 0; j < rulesToFail; j++ {
			if j == i {
				continue
			}
			if known[shortRules[j].ReferenceName(short)] {
				ambiguous = true
				break
			}
		}
		if !ambiguous {
			return short
		}
	}
	return full
}

func (ru shortRule) ReferenceName(name string) plumbing.ReferenceName {
	return plumbing.ReferenceName(ru.prefix + name + ru.suffix)
}
