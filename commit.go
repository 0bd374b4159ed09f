package gitcore

import (
	"bytes"
	"context"
	"sync"

	"github.com/coldforge/gitcore/object"
	"github.com/coldforge/gitcore/plumbing"
	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// Commit is a parsed commit plus the repository it came from, so its
// methods (Containers) can walk the object graph further. Embedding
// *object.CommitRecord keeps every field (TreeID, ParentIDs, Author, ...)
// directly accessible.
type Commit struct {
	*object.CommitRecord
	repo *Repository

	containersOnce sync.Once
	containers     []*plumbing.Reference
	containersErr  error
}

// maxContainersDepth bounds the per-branch ancestor walk Containers performs,
// matching the spec's general cooperative-cancellation and boundedness
// posture for any graph traversal over an unbounded-size history.
const maxContainersDepth = 100_000

// Containers returns every local branch and tag whose history includes this
// commit, computed by a bounded breadth-first walk back from each tip (spec
// §9's lazy "branches/tags containing this commit" field). The result is
// memoized: repeated calls after the first return the same slice without
// re-walking history.
func (c *Commit) Containers(ctx context.Context) ([]*plumbing.Reference, error) {
	c.containersOnce.Do(func() {
		c.containers, c.containersErr = c.computeContainers(ctx)
	})
	return c.containers, c.containersErr
}

func (c *Commit) computeContainers(ctx context.Context) ([]*plumbing.Reference, error) {
	tips, err := c.repo.resolver.BranchesAndTags()
	if err != nil {
		return nil, err
	}

	var containing []*plumbing.Reference
	for _, tip := range tips {
		tipCommit, ok, err := c.repo.resolveTipToCommit(ctx, tip)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		reaches, err := c.repo.ancestorReaches(ctx, tipCommit, c.ID)
		if err != nil {
			return nil, err
		}
		if reaches {
			containing = append(containing, tip)
		}
	}
	return containing, nil
}

// resolveTipToCommit peels a branch or tag reference down to the commit id
// it ultimately names, following annotated-tag chains and the packed-refs
// peel cache. ok is false for a tag that targets a tree or blob (spec §9's
// resolved Open Question: only commit-target tags carry a synthetic
// annotation onward).
func (r *Repository) resolveTipToCommit(ctx context.Context, tip *plumbing.Reference) (plumbing.Hash, bool, error) {
	if tip.Type() != plumbing.HashReference {
		return plumbing.ZeroHash, false, nil
	}
	if peeled, ok, err := r.resolver.PeeledID(tip.Name()); err != nil {
		return plumbing.ZeroHash, false, err
	} else if ok {
		return peeled, true, nil
	}

	id := tip.Hash()
	for depth := 0; depth < r.opts.SymbolicRefMaxHops+1; depth++ {
		kind, data, err := r.readRaw(ctx, id)
		if err != nil {
			return plumbing.ZeroHash, false, err
		}
		switch kind {
		case object.Commit:
			return id, true, nil
		case object.Tag:
			tagRecord, err := object.ParseTag(id, bytes.NewReader(data))
			if err != nil {
				return plumbing.ZeroHash, false, err
			}
			if tagRecord.ObjectKind != object.Commit && tagRecord.ObjectKind != object.Tag {
				return plumbing.ZeroHash, false, nil
			}
			id = tagRecord.ObjectID
		default:
			return plumbing.ZeroHash, false, nil
		}
	}
	return plumbing.ZeroHash, false, nil
}

// ancestorReaches performs a bounded breadth-first search of tip's ancestry
// for target, using a FIFO frontier queue.
func (r *Repository) ancestorReaches(ctx context.Context, tip, target plumbing.Hash) (bool, error) {
	if tip == target {
		return true, nil
	}

	visited := map[plumbing.Hash]bool{tip: true}
	queue := linkedlistqueue.New()
	queue.Enqueue(tip)

	for steps := 0; !queue.Empty() && steps < maxContainersDepth; steps++ {
		if err := ctx.Err(); err != nil {
			return false, plumbing.ErrCancelled
		}
		v, _ := queue.Dequeue()
		id := v.(plumbing.Hash)

		commit, err := r.Commit(ctx, id)
		if err != nil {
			return false, err
		}
		for _, parent := range commit.ParentIDs {
			if parent == target {
				return true, nil
			}
			if visited[parent] {
				continue
			}
			visited[parent] = true
			queue.Enqueue(parent)
		}
	}
	return false, nil
}
