package object

import (
	"bytes"
	"testing"

	"github.com/coldforge/gitcore/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryBytes(mode, name string, id plumbing.Hash) []byte {
	var buf bytes.Buffer
	buf.WriteString(mode)
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteByte(0)
	buf.Write(id[:])
	return buf.Bytes()
}

func TestParseTree(t *testing.T) {
	fileID := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	dirID := plumbing.NewHash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	exeID := plumbing.NewHash("cccccccccccccccccccccccccccccccccccccccc")
	linkID := plumbing.NewHash("dddddddddddddddddddddddddddddddddddddddd")
	subID := plumbing.NewHash("eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")

	var body bytes.Buffer
	body.Write(entryBytes("100644", "README.md", fileID))
	body.Write(entryBytes("40000", "src", dirID))
	body.Write(entryBytes("100755", "run.sh", exeID))
	body.Write(entryBytes("120000", "link", linkID))
	body.Write(entryBytes("160000", "vendor/lib", subID))

	id := plumbing.NewHash("1205dc34ce48bda28fc543daaf9525a9bb6e6d10")
	tree, err := ParseTree(id, &body)
	require.NoError(t, err)
	require.Len(t, tree.Entries, 5)

	readme, ok := tree.Find("README.md")
	require.True(t, ok)
	assert.Equal(t, EntryBlob, readme.Kind())
	assert.False(t, readme.IsDir())

	src, ok := tree.Find("src")
	require.True(t, ok)
	assert.Equal(t, EntryTree, src.Kind())
	assert.True(t, src.IsDir())

	run, ok := tree.Find("run.sh")
	require.True(t, ok)
	assert.Equal(t, EntryExecutable, run.Kind())

	link, ok := tree.Find("link")
	require.True(t, ok)
	assert.Equal(t, EntrySymlink, link.Kind())

	sub, ok := tree.Find("vendor/lib")
	require.True(t, ok)
	assert.Equal(t, EntrySubmodule, sub.Kind())

	_, ok = tree.Find("missing")
	assert.False(t, ok)
}

func TestSortEntriesGitOrder(t *testing.T) {
	entries := []TreeEntry{
		{Mode: ModeTree, Name: "foo"},
		{Mode: ModeBlob, Name: "foo.c"},
	}
	SortEntries(entries)
	// "foo.c" sorts before "foo/" (trailing slash pushes the directory
	// name after its dotted sibling).
	assert.Equal(t, "foo.c", entries[0].Name)
	assert.Equal(t, "foo", entries[1].Name)
}
