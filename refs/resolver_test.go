package refs

import (
	"testing"

	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(files map[string]string) *Resolver {
	fs := filesystem.NewMem(files)
	return New(fs, "", 0)
}

func TestResolveDirectMaster(t *testing.T) {
	r := newTestResolver(map[string]string{
		"HEAD":              "ref: refs/heads/master\n",
		"refs/heads/master": "1205dc34ce48bda28fc543daaf9525a9bb6e6d10\n",
	})
	ref, err := r.HEAD()
	require.NoError(t, err)
	assert.Equal(t, plumbing.NewHash("1205dc34ce48bda28fc543daaf9525a9bb6e6d10"), ref.Hash())
	assert.Equal(t, plumbing.ReferenceName("refs/heads/master"), ref.Name())
}

func TestResolveDetachedHEAD(t *testing.T) {
	r := newTestResolver(map[string]string{
		"HEAD": "1205dc34ce48bda28fc543daaf9525a9bb6e6d10\n",
	})
	ref, err := r.HEAD()
	require.NoError(t, err)
	assert.Equal(t, plumbing.HashReference, ref.Type())
	id := plumbing.NewHash("1205dc34ce48bda28fc543daaf9525a9bb6e6d10")
	assert.Equal(t, id, ref.Hash())
	assert.Equal(t, plumbing.ReferenceName(id.String()), ref.Name())
}

func TestMissingReferenceIsAbsent(t *testing.T) {
	r := newTestResolver(map[string]string{
		"HEAD": "ref: refs/heads/master\n",
	})
	_, err := r.Reference("refs/heads/master")
	assert.Equal(t, plumbing.ErrAbsent, err)
}

func TestPackedRefsWithPeel(t *testing.T) {
	r := newTestResolver(map[string]string{
		"packed-refs": "# pack-refs with: peeled fully-peeled sorted\n" +
			"9e3974a9c6a4cc8b58569c7f3585d4dd16ac8715 refs/tags/0.9.6\n" +
			"^a7187601f4b4b9dacc3c78895397bb2911d190d6\n",
	})
	ref, err := r.Reference("refs/tags/0.9.6")
	require.NoError(t, err)
	assert.Equal(t, plumbing.NewHash("9e3974a9c6a4cc8b58569c7f3585d4dd16ac8715"), ref.Hash())

	peeled, ok, err := r.PeeledID("refs/tags/0.9.6")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, plumbing.NewHash("a7187601f4b4b9dacc3c78895397bb2911d190d6"), peeled)
}

func TestLooseOverridesPacked(t *testing.T) {
	r := newTestResolver(map[string]string{
		"packed-refs":       "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa refs/heads/master\n",
		"refs/heads/master": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n",
	})
	ref, err := r.Reference("refs/heads/master")
	require.NoError(t, err)
	assert.Equal(t, plumbing.NewHash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"), ref.Hash())
}

func TestSymbolicHopBudgetExceeded(t *testing.T) {
	r := newTestResolver(map[string]string{
		"HEAD":   "ref: a\n",
		"a":      "ref: b\n",
		"b":      "ref: c\n",
		"c":      "ref: d\n",
		"d":      "ref: e\n",
		"e":      "ref: a\n",
	})
	_, err := r.HEAD()
	require.Error(t, err)
}

func TestBranchesAndTags(t *testing.T) {
	r := newTestResolver(map[string]string{
		"refs/heads/master": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n",
		"refs/heads/devel":  "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n",
		"refs/tags/v1.0":    "cccccccccccccccccccccccccccccccccccccccc\n",
	})
	tips, err := r.BranchesAndTags()
	require.NoError(t, err)
	names := make(map[plumbing.ReferenceName]bool)
	for _, ref := range tips {
		names[ref.Name()] = true
	}
	assert.True(t, names["refs/heads/master"])
	assert.True(t, names["refs/heads/devel"])
	assert.True(t, names["refs/tags/v1.0"])
}

func TestReferenceNameClassificationValid(t *testing.T) {
	assert.True(t, IsValidName("refs/heads/main"))
	assert.False(t, IsValidName("refs/heads//main"))
}
