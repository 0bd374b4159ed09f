package object

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/coldforge/gitcore/plumbing"
)

// TreeEntry is one record in a tree object.
type TreeEntry struct {
	Mode    Mode
	Name    string
	ChildID plumbing.Hash
}

// Kind classifies the entry from its mode.
func (e TreeEntry) Kind() EntryKind { return e.Mode.Classify() }

// IsDir reports whether the entry is itself a tree.
func (e TreeEntry) IsDir() bool { return e.Kind() == EntryTree }

// TreeRecord is the parsed form of a tree object.
type TreeRecord struct {
	ID      plumbing.Hash
	Entries []TreeEntry
}

// ParseTree decodes a tree object's body: a sequence to EOF of
// "<octal-mode> SP <name> NUL <20-byte-hash>" (spec §4.6).
func ParseTree(id plumbing.Hash, r io.Reader) (*TreeRecord, error) {
	t := &TreeRecord{ID: id}
	br := bufio.NewReader(r)

	for {
		modeStr, err := br.ReadString(' ')
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tree entry mode: %w", err)
		}
		modeStr = strings.TrimSuffix(modeStr, " ")
		modeVal, err := strconv.ParseUint(modeStr, 8, 32)
		if err != nil {
			return nil, &plumbing.MalformedObjectError{ID: id, Reason: fmt.Sprintf("invalid tree entry mode %q", modeStr)}
		}

		name, err := br.ReadString(0)
		if err != nil {
			return nil, &plumbing.MalformedObjectError{ID: id, Reason: "truncated tree entry name"}
		}
		name = strings.TrimSuffix(name, "\x00")

		var raw [plumbing.HashSize]byte
		if _, err := io.ReadFull(br, raw[:]); err != nil {
			return nil, &plumbing.MalformedObjectError{ID: id, Reason: "truncated tree entry hash"}
		}

		t.Entries = append(t.Entries, TreeEntry{
			Mode:    Mode(modeVal),
			Name:    name,
			ChildID: plumbing.Hash(raw),
		})
	}

	return t, nil
}

// sortKey returns the byte-comparison key Git uses when ordering tree
// entries: directory names get a trailing '/' appended before comparison so
// "foo" sorts after "foo.c" but before "foo/bar".
func (e TreeEntry) sortKey() string {
	if e.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

// SortEntries orders entries the way Git writes them on disk.
func SortEntries(entries []TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].sortKey() < entries[j].sortKey()
	})
}

// Find returns the entry named name, or false if absent.
func (t *TreeRecord) Find(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}
