package gitcore

import (
	"bufio"
	"strings"

	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/plumbing"
	"github.com/coldforge/gitcore/refs"
)

// WorktreeStatus classifies a WorktreeDescriptor (spec §3 WorktreeDescriptor,
// §4.7.4).
type WorktreeStatus int

const (
	WorktreeNormal WorktreeStatus = iota
	WorktreeBare
	WorktreeDetached
	WorktreeLocked
	WorktreePrunable
)

func (s WorktreeStatus) String() string {
	switch s {
	case WorktreeBare:
		return "bare"
	case WorktreeDetached:
		return "detached"
	case WorktreeLocked:
		return "locked"
	case WorktreePrunable:
		return "prunable"
	default:
		return "normal"
	}
}

// mainWorktreeName is the literal name spec §4.7.4 assigns the main working
// tree, which (unlike linked worktrees) has no directory of its own under
// ".git/worktrees".
const mainWorktreeName = "(main)"

// WorktreeDescriptor describes one worktree attached to a repository, main
// or linked (spec §3).
type WorktreeDescriptor struct {
	Name         string
	AbsolutePath string
	Status       WorktreeStatus
	HeadID       *plumbing.Hash
	BranchName   string
	IsMain       bool
}

// Worktrees enumerates the main worktree plus every linked worktree
// registered under ".git/worktrees" (spec §4.7.4).
func (r *Repository) Worktrees() ([]WorktreeDescriptor, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	cfg, err := r.Config()
	if err != nil {
		return nil, err
	}

	main, err := r.describeMainWorktree(cfg)
	if err != nil {
		return nil, err
	}
	descriptors := []WorktreeDescriptor{main}

	ids, err := r.resolver.Worktrees()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		d, err := r.describeLinkedWorktree(id)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func (r *Repository) describeMainWorktree(cfg *refs.Config) (WorktreeDescriptor, error) {
	d := WorktreeDescriptor{Name: mainWorktreeName, AbsolutePath: r.workDir, IsMain: true}
	if cfg.Bare {
		d.Status = WorktreeBare
	}

	head, err := r.resolver.Reference(plumbing.HEAD)
	switch {
	case err == plumbing.ErrAbsent:
		return d, nil
	case err != nil:
		return WorktreeDescriptor{}, err
	}
	r.fillHeadInfo(&d, head)
	return d, nil
}

func (r *Repository) describeLinkedWorktree(id string) (WorktreeDescriptor, error) {
	gitDir := r.fs.Join(r.gitDir, "worktrees", id)
	d := WorktreeDescriptor{Name: id}

	if p := r.fs.Join(gitDir, "gitdir"); r.fs.Exists(p) {
		if path, err := readFirstLine(r.fs, p); err == nil {
			d.AbsolutePath = strings.TrimSuffix(strings.TrimSpace(path), ".git")
		}
	}
	if r.fs.Exists(r.fs.Join(gitDir, "locked")) {
		d.Status = WorktreeLocked
	} else if d.AbsolutePath != "" && !r.fs.Exists(d.AbsolutePath) {
		d.Status = WorktreePrunable
	}

	head, err := r.resolver.WorktreeHEAD(id)
	switch {
	case err == plumbing.ErrAbsent:
		return d, nil
	case err != nil:
		return WorktreeDescriptor{}, err
	}
	if head.Name() != plumbing.HEAD {
		// WorktreeHEAD follows a symbolic HEAD through to the branch it
		// names, so a reference not named HEAD means a branch is checked out.
		d.BranchName = head.Name().Short()
		id := head.Hash()
		d.HeadID = &id
		return d, nil
	}
	// A detached HEAD: a locked/prunable worktree keeps that status; only
	// promote to Detached when nothing stronger already applies.
	if d.Status == WorktreeNormal {
		r.fillHeadInfo(&d, head)
	} else {
		id := head.Hash()
		d.HeadID = &id
	}
	return d, nil
}

func (r *Repository) fillHeadInfo(d *WorktreeDescriptor, head *plumbing.Reference) {
	if head.Type() == plumbing.HashReference {
		id := head.Hash()
		d.HeadID = &id
		if d.Status == WorktreeNormal {
			d.Status = WorktreeDetached
		}
		return
	}
	d.BranchName = head.Target().Short()
	target, err := r.resolver.Resolve(plumbing.HEAD)
	if err == nil && target.Type() == plumbing.HashReference {
		id := target.Hash()
		d.HeadID = &id
	}
}

// readFirstLine reads the first line of a small text file such as
// ".git/worktrees/<name>/gitdir", trimming its trailing newline.
func readFirstLine(fs filesystem.FileSystem, path string) (string, error) {
	h, err := fs.OpenRead(path)
	if err != nil {
		return "", err
	}
	defer h.Close()
	line, err := bufio.NewReader(h).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
