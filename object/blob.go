package object

import "github.com/coldforge/gitcore/plumbing"

// BlobRecord is a blob's identity plus a lazily-read content stream; unlike
// commit/tree/tag, a blob's body is opaque and is never fully materialized
// by this package.
type BlobRecord struct {
	ID   plumbing.Hash
	Size int64
}

// NewBlob wraps an already-known id/size pair, typically obtained from the
// loose or pack layer's header without reading the body.
func NewBlob(id plumbing.Hash, size int64) *BlobRecord {
	return &BlobRecord{ID: id, Size: size}
}
