package gitcore

import (
	"bytes"
	"compress/zlib"
	"context"
	"io"
	"testing"
	"time"

	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deflate compresses body the way a real loose-object file is stored, so
// zstream's klauspost-backed inflater can read fixtures built with the
// standard library's zlib writer (same wire format).
func deflate(t *testing.T, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// looseObject hashes and deflates one loose object body, returning its id
// and the compressed bytes to write at objects/<aa>/<bb...>.
func looseObject(t *testing.T, kind string, payload []byte) (plumbing.Hash, []byte) {
	t.Helper()
	header := []byte(kind + " " + itoa(len(payload)) + "\x00")
	full := append(append([]byte{}, header...), payload...)

	hasher := plumbing.NewHasher()
	_, err := hasher.Write(full)
	require.NoError(t, err)
	return hasher.Sum(), deflate(t, full)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// buildRepo assembles a minimal, real (Git-format) repository in memory: one
// commit, its tree (holding one blob), and refs/heads/master plus HEAD
// pointing at it.
func buildRepo(t *testing.T) *filesystem.Mem {
	t.Helper()
	fs := filesystem.NewMem(nil)

	blobID, blobBytes := looseObject(t, "blob", []byte("hello\n"))
	fs.Set("repo/.git/objects/"+blobID.String()[:2]+"/"+blobID.String()[2:], blobBytes, time.Now())

	treeBody := []byte("100644 README.md\x00")
	treeBody = append(treeBody, blobID[:]...)
	treeID, treeBytes := looseObject(t, "tree", treeBody)
	fs.Set("repo/.git/objects/"+treeID.String()[:2]+"/"+treeID.String()[2:], treeBytes, time.Now())

	commitBody := []byte("tree " + treeID.String() + "\n" +
		"author Kouji Matsui <k@kekyo.net> 1600000000 +0900\n" +
		"committer Kouji Matsui <k@kekyo.net> 1600000000 +0900\n" +
		"\n" +
		"Initial commit\n")
	commitID, commitBytes := looseObject(t, "commit", commitBody)
	fs.Set("repo/.git/objects/"+commitID.String()[:2]+"/"+commitID.String()[2:], commitBytes, time.Now())

	fs.Set("repo/.git/HEAD", []byte("ref: refs/heads/master\n"), time.Now())
	fs.Set("repo/.git/refs/heads/master", []byte(commitID.String()+"\n"), time.Now())

	return fs
}

func TestOpenResolveAndReadCommit(t *testing.T) {
	fs := buildRepo(t)
	repo, err := Open("repo", WithFileSystem(fs))
	require.NoError(t, err)
	defer repo.Close()

	head, err := repo.HEAD()
	require.NoError(t, err)
	assert.Equal(t, plumbing.ReferenceName("refs/heads/master"), head.Name())

	ctx := context.Background()
	commit, err := repo.Commit(ctx, head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Initial commit", commit.Subject())
	assert.Empty(t, commit.ParentIDs)

	tree, err := repo.Tree(ctx, commit.TreeID)
	require.NoError(t, err)
	require.Len(t, tree.Entries, 1)
	assert.Equal(t, "README.md", tree.Entries[0].Name)

	blobRecord, stream, err := repo.Blob(ctx, tree.Entries[0].ChildID)
	require.NoError(t, err)
	defer stream.Close()
	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
	assert.Equal(t, int64(len(data)), blobRecord.Size)
}

func TestCloseInvalidatesFurtherCalls(t *testing.T) {
	fs := buildRepo(t)
	repo, err := Open("repo", WithFileSystem(fs))
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	_, err = repo.HEAD()
	assert.ErrorIs(t, err, plumbing.ErrClosed)
}

func TestOpenRejectsNonRepository(t *testing.T) {
	fs := filesystem.NewMem(map[string]string{"somefile.txt": "x"})
	_, err := Open("repo", WithFileSystem(fs))
	assert.Error(t, err)
}
