// Package looseobject reads Git's "loose" object files: objects/<aa>/<bb...>,
// each a single zlib stream whose plaintext begins "<kind> <size>\0".
package looseobject

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/plumbing"
	"github.com/coldforge/gitcore/zstream"
)

// Kind mirrors pack.Kind's string vocabulary without importing the pack
// package (loose objects never carry a delta kind).
type Kind string

const (
	KindCommit Kind = "commit"
	KindTree   Kind = "tree"
	KindBlob   Kind = "blob"
	KindTag    Kind = "tag"
)

// Store reads loose objects under a repository's objects/ directory.
type Store struct {
	fs         filesystem.FileSystem
	objectsDir string
}

// New returns a Store rooted at objectsDir (typically "<gitdir>/objects").
func New(fs filesystem.FileSystem, objectsDir string) *Store {
	return &Store{fs: fs, objectsDir: objectsDir}
}

func (s *Store) path(id plumbing.Hash) string {
	hex := id.String()
	return s.fs.Join(s.objectsDir, hex[:2], hex[2:])
}

// Has reports whether a loose object file exists for id.
func (s *Store) Has(id plumbing.Hash) bool {
	return s.fs.Exists(s.path(id))
}

// Get opens, inflates, and header-parses the loose object for id, returning
// its kind, declared body size, and a memoizing stream over the body
// (bounded to that size).
func (s *Store) Get(id plumbing.Hash) (Kind, int64, *zstream.Memoizer, error) {
	path := s.path(id)
	handle, err := s.fs.OpenRead(path)
	if err != nil {
		return "", 0, nil, plumbing.NewIoError(path, err)
	}

	zr, err := zstream.OpenDeflate(handle, 0, -1)
	if err != nil {
		_ = handle.Close()
		return "", 0, nil, &plumbing.CorruptPackError{Path: path, Reason: fmt.Sprintf("open zlib stream: %v", err)}
	}

	br := bufio.NewReader(zr)
	kind, size, err := readLooseHeader(br)
	if err != nil {
		_ = handle.Close()
		return "", 0, nil, &plumbing.MalformedObjectError{ID: id, Reason: err.Error()}
	}

	bounded := io.LimitReader(br, size)
	return kind, size, zstream.NewMemoizer(&closingReader{r: bounded, c: handle}), nil
}

// readLooseHeader reads "<kind> <size>\0" from r.
func readLooseHeader(r *bufio.Reader) (Kind, int64, error) {
	kindBytes, err := r.ReadString(' ')
	if err != nil {
		return "", 0, fmt.Errorf("read kind: %w", err)
	}
	kind := Kind(kindBytes[:len(kindBytes)-1])
	switch kind {
	case KindCommit, KindTree, KindBlob, KindTag:
	default:
		return "", 0, fmt.Errorf("unknown object kind %q", kind)
	}

	sizeBytes, err := r.ReadString(0)
	if err != nil {
		return "", 0, fmt.Errorf("read size: %w", err)
	}
	sizeStr := sizeBytes[:len(sizeBytes)-1]
	size, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("parse size %q: %w", sizeStr, err)
	}
	return kind, size, nil
}

// closingReader ties the lifetime of the underlying file handle to the
// decompressed-body reader, so callers only need to Close the stream.
type closingReader struct {
	r io.Reader
	c io.Closer
}

func (c *closingReader) Read(p []byte) (int, error) { return c.r.Read(p) }
func (c *closingReader) Close() error                { return c.c.Close() }
