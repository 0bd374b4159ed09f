// Package object parses the raw bytes of commit, tree, tag, and blob
// objects into typed records, per spec §4.6 / §3.
package object

import "github.com/coldforge/gitcore/plumbing"

// Kind is one of the four object kinds visible above the pack/loose layer.
type Kind int8

const (
	Invalid Kind = 0
	Commit  Kind = 1
	Tree    Kind = 2
	Blob    Kind = 3
	Tag     Kind = 4
)

func (k Kind) String() string {
	switch k {
	case Commit:
		return "commit"
	case Tree:
		return "tree"
	case Blob:
		return "blob"
	case Tag:
		return "tag"
	default:
		return "invalid"
	}
}

// KindFromString maps a loose/pack object's ASCII kind word to Kind.
func KindFromString(s string) Kind {
	switch s {
	case "commit":
		return Commit
	case "tree":
		return Tree
	case "blob":
		return Blob
	case "tag":
		return Tag
	default:
		return Invalid
	}
}

// Mode is a tree entry's octal Unix-style mode, as stored on disk.
type Mode uint32

const (
	ModeTree       Mode = 0o040000
	ModeBlob       Mode = 0o100644
	ModeBlobExec   Mode = 0o100755
	ModeSymlink    Mode = 0o120000
	ModeSubmodule  Mode = 0o160000
	ModeBlobLegacy Mode = 0o100664
)

// EntryKind classifies a TreeEntry by its Mode.
type EntryKind int8

const (
	EntryInvalid    EntryKind = 0
	EntryBlob       EntryKind = 1
	EntryExecutable EntryKind = 2
	EntryTree       EntryKind = 3
	EntrySymlink    EntryKind = 4
	EntrySubmodule  EntryKind = 5
)

// Classify derives an EntryKind from a raw tree-entry mode, tolerating the
// legacy 100664 regular-file mode some older repositories still contain.
func (m Mode) Classify() EntryKind {
	switch m & 0o170000 {
	case ModeTree:
		return EntryTree
	case ModeSymlink:
		return EntrySymlink
	case ModeSubmodule:
		return EntrySubmodule
	case 0o100000:
		if m&0o111 != 0 {
			return EntryExecutable
		}
		return EntryBlob
	default:
		return EntryInvalid
	}
}

// ObjectID is an alias kept local to this package for readability; it is
// always plumbing.Hash.
type ObjectID = plumbing.Hash
