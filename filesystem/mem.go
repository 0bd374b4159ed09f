package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"
)

// Mem is an in-memory FileSystem, the synthetic-tree seam spec §9 calls for
// so tests can build a tiny repository layout without touching real disk.
// Paths are always slash-separated and compared as plain strings.
type Mem struct {
	files map[string][]byte
	mtime map[string]time.Time
}

// NewMem builds a Mem pre-populated with files, given as path -> content.
// Every '/'-delimited ancestor of a file path is treated as an implicit
// directory.
func NewMem(files map[string]string) *Mem {
	m := &Mem{files: make(map[string][]byte), mtime: make(map[string]time.Time)}
	for p, content := range files {
		m.files[clean(p)] = []byte(content)
	}
	return m
}

func clean(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// Set writes or overwrites a file's content, recording modTime as its mtime.
func (m *Mem) Set(p string, content []byte, modTime time.Time) {
	p = clean(p)
	m.files[p] = content
	m.mtime[p] = modTime
}

// Remove deletes a file, if present.
func (m *Mem) Remove(p string) {
	p = clean(p)
	delete(m.files, p)
	delete(m.mtime, p)
}

func (m *Mem) OpenRead(p string) (ReadHandle, error) {
	p = clean(p)
	data, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("mem: open %s: no such file", p)
	}
	return &memHandle{r: bytes.NewReader(data)}, nil
}

func (m *Mem) Exists(p string) bool {
	p = clean(p)
	if _, ok := m.files[p]; ok {
		return true
	}
	prefix := p + "/"
	for existing := range m.files {
		if strings.HasPrefix(existing, prefix) {
			return true
		}
	}
	return false
}

func (m *Mem) ListDir(p string) ([]DirEntry, error) {
	p = clean(p)
	prefix := p
	if prefix != "" {
		prefix += "/"
	}
	children := make(map[string]bool)
	for existing := range m.files {
		if !strings.HasPrefix(existing, prefix) {
			continue
		}
		rest := existing[len(prefix):]
		if rest == "" {
			continue
		}
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			children[rest[:idx]] = true
		} else {
			children[rest] = false
		}
	}
	var out []DirEntry
	for name, isDir := range children {
		out = append(out, DirEntry{Name: name, IsDir: isDir})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Mem) Metadata(p string) (Info, error) {
	p = clean(p)
	if data, ok := m.files[p]; ok {
		return Info{Size: int64(len(data)), ModTime: m.mtime[p]}, nil
	}
	if m.Exists(p) {
		return Info{Mode: dirMode}, nil
	}
	return Info{}, fmt.Errorf("mem: stat %s: no such file", p)
}

const dirMode = 1 << 31 // os.ModeDir, duplicated to avoid importing os here

func (m *Mem) Join(elem ...string) string {
	return path.Join(elem...)
}

// memHandle adapts a bytes.Reader to ReadHandle.
type memHandle struct {
	r *bytes.Reader
}

func (h *memHandle) Read(p []byte) (int, error)              { return h.r.Read(p) }
func (h *memHandle) ReadAt(p []byte, off int64) (int, error) { return h.r.ReadAt(p, off) }
func (h *memHandle) Seek(offset int64, whence int) (int64, error) {
	return h.r.Seek(offset, whence)
}
func (h *memHandle) Close() error { return nil }

var _ io.ReaderAt = (*memHandle)(nil)
