package plumbing

import (
	"strings"
)

const (
	// ReferencePrefix is the directory under .git that all non-HEAD
	// references live under.
	ReferencePrefix = "refs/"
	refHeadPrefix   = ReferencePrefix + "heads/"
	refTagPrefix    = ReferencePrefix + "tags/"
	refRemotePrefix = ReferencePrefix + "remotes/"
	symrefPrefix    = "ref: "
)

// HEAD is the well known name of the repository's current-branch pointer.
const HEAD ReferenceName = "HEAD"

// ReferenceType distinguishes a direct (hash) reference from a symbolic one.
type ReferenceType int8

const (
	InvalidReference  ReferenceType = 0
	HashReference     ReferenceType = 1
	SymbolicReference ReferenceType = 2
)

// ReferenceName is the full path of a reference, e.g. "refs/heads/main".
type ReferenceName string

func (r ReferenceName) String() string { return string(r) }

// IsBranch reports whether r names a local branch.
func (r ReferenceName) IsBranch() bool { return strings.HasPrefix(string(r), refHeadPrefix) }

// IsRemote reports whether r names a remote-tracking branch.
func (r ReferenceName) IsRemote() bool { return strings.HasPrefix(string(r), refRemotePrefix) }

// IsTag reports whether r names a tag.
func (r ReferenceName) IsTag() bool { return strings.HasPrefix(string(r), refTagPrefix) }

// Short strips the best-known well-known prefix off r, mirroring Git's
// shorten_unambiguous_ref for the common cases.
func (r ReferenceName) Short() string {
	s := string(r)
	switch {
	case strings.HasPrefix(s, refHeadPrefix):
		return strings.TrimPrefix(s, refHeadPrefix)
	case strings.HasPrefix(s, refTagPrefix):
		return strings.TrimPrefix(s, refTagPrefix)
	case strings.HasPrefix(s, refRemotePrefix):
		return strings.TrimPrefix(s, refRemotePrefix)
	case strings.HasPrefix(s, ReferencePrefix):
		return strings.TrimPrefix(s, ReferencePrefix)
	default:
		return s
	}
}

// Reference is a parsed reference: either a direct pointer at an object id,
// or a symbolic pointer at another reference name.
type Reference struct {
	typ    ReferenceType
	name   ReferenceName
	hash   Hash
	target ReferenceName
}

// NewHashReference builds a direct reference.
func NewHashReference(name ReferenceName, h Hash) *Reference {
	return &Reference{typ: HashReference, name: name, hash: h}
}

// NewSymbolicReference builds a symbolic reference.
func NewSymbolicReference(name, target ReferenceName) *Reference {
	return &Reference{typ: SymbolicReference, name: name, target: target}
}

// NewReferenceFromStrings parses target (the raw file/packed-refs body,
// already trimmed) into either a symbolic or direct reference named name.
func NewReferenceFromStrings(name, target string) *Reference {
	n := ReferenceName(name)
	if strings.HasPrefix(target, symrefPrefix) {
		return NewSymbolicReference(n, ReferenceName(strings.TrimSpace(target[len(symrefPrefix):])))
	}
	return NewHashReference(n, NewHash(target))
}

func (r *Reference) Type() ReferenceType { return r.typ }
func (r *Reference) Name() ReferenceName { return r.name }
func (r *Reference) Hash() Hash          { return r.hash }
func (r *Reference) Target() ReferenceName { return r.target }

func (r *Reference) String() string {
	switch r.typ {
	case HashReference:
		return r.hash.String() + " " + r.name.String()
	case SymbolicReference:
		return symrefPrefix + r.target.String() + " " + r.name.String()
	default:
		return ""
	}
}

// ValidateReferenceName reports whether every '/'-delimited component of name
// is non-empty, does not start with '.', does not end with ".lock", and
// contains none of the bytes Git forbids in ref components.
func ValidateReferenceName(name []byte) bool {
	if len(name) == 0 {
		return false
	}
	parts := strings.Split(string(name), "/")
	for _, p := range parts {
		if p == "" || p[0] == '.' {
			return false
		}
		if strings.HasSuffix(p, ".lock") {
			return false
		}
		for i := 0; i < len(p); i++ {
			switch p[i] {
			case ' ', '~', '^', ':', '?', '*', '[', '\\':
				return false
			}
			if p[i] < 0x20 || p[i] == 0x7f {
				return false
			}
		}
	}
	return true
}
