// Package filesystem exposes the minimal read-only file-system surface the
// object-store access layer needs, so tests can substitute an in-memory
// tree instead of touching a real .git directory.
package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"time"
)

// DirEntry is one entry returned by ListDir.
type DirEntry struct {
	Name  string
	IsDir bool
}

// Info is the subset of file metadata the layer needs.
type Info struct {
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
}

// ReadHandle is an open, readable, seekable file.
type ReadHandle interface {
	io.ReaderAt
	io.Reader
	io.Seeker
	io.Closer
}

// FileSystem is the dynamic-dispatch seam the spec calls for in §6/§9: every
// path-touching component in this module takes one of these rather than
// calling os.* directly, so repository-open-time options can supply a
// synthetic tree for tests.
type FileSystem interface {
	// OpenRead opens path for reading.
	OpenRead(path string) (ReadHandle, error)
	// Exists reports whether path exists (following symlinks).
	Exists(path string) bool
	// ListDir lists the immediate children of path. A non-existent
	// directory is not an error: it yields an empty slice.
	ListDir(path string) ([]DirEntry, error)
	// Metadata stats path.
	Metadata(path string) (Info, error)
	// Join joins path elements using the filesystem's separator.
	Join(elem ...string) string
}

// OS is the production FileSystem backed by the local disk.
type OS struct{}

// NewOS returns the local-disk FileSystem.
func NewOS() FileSystem { return OS{} }

func (OS) OpenRead(path string) (ReadHandle, error) {
	return os.Open(path)
}

func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OS) ListDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirEntry{Name: e.Name(), IsDir: e.IsDir()})
	}
	return out, nil
}

func (OS) Metadata(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	return Info{Size: fi.Size(), ModTime: fi.ModTime(), Mode: fi.Mode()}, nil
}

func (OS) Join(elem ...string) string {
	return filepath.Join(elem...)
}
