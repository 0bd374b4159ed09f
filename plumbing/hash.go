// Package plumbing holds the small, dependency-free types shared across the
// object-store access layer: object ids, reference names, and signatures.
package plumbing

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"hash"
	"sort"
)

const (
	// HashSize is the width in bytes of a Git object id (SHA-1).
	HashSize = 20
	// HashHexSize is the width in bytes of the hex representation of a Hash.
	HashHexSize = HashSize * 2
)

// Hash is a 20-byte Git object id.
type Hash [HashSize]byte

// ZeroHash is the zero-value Hash, used to represent "no object" (e.g. the
// old side of a reflog entry that created a reference).
var ZeroHash Hash

// NewHash decodes a hex string into a Hash. Malformed or short input yields a
// zero-padded best effort value; callers that need to reject malformed input
// should call ValidateHashHex first.
func NewHash(s string) Hash {
	b, _ := hex.DecodeString(s)
	var h Hash
	copy(h[:], b)
	return h
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the 40-character lowercase hex form of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ValidateHashHex reports whether s is a well-formed 40-character hex id.
func ValidateHashHex(s string) bool {
	if len(s) != HashHexSize {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// HashSlice attaches sort.Interface to []Hash, in byte-wise increasing order
// (the same order Git stores SHA tables on disk).
type HashSlice []Hash

func (p HashSlice) Len() int           { return len(p) }
func (p HashSlice) Less(i, j int) bool { return bytes.Compare(p[i][:], p[j][:]) < 0 }
func (p HashSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// HashesSort sorts a slice of Hashes in increasing order.
func HashesSort(a []Hash) {
	sort.Sort(HashSlice(a))
}

// Hasher computes a Hash over object bytes (the loose/pack "<kind> <size>\0<body>"
// framing, or any other byte stream the caller assembles).
type Hasher struct {
	hash.Hash
}

// NewHasher returns a Hasher ready to accept writes.
func NewHasher() Hasher {
	return Hasher{Hash: sha1.New()}
}

// Sum finalizes the hash and returns it as a Hash.
func (h Hasher) Sum() (out Hash) {
	copy(out[:], h.Hash.Sum(nil))
	return
}
