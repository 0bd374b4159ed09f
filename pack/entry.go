package pack

import (
	"fmt"
	"io"

	"github.com/coldforge/gitcore/plumbing"
)

// Kind is a pack entry's type byte, per spec §4.3.2: the four "real" object
// kinds plus the two transient delta kinds that never escape this package.
type Kind uint8

const (
	KindCommit   Kind = 1
	KindTree     Kind = 2
	KindBlob     Kind = 3
	KindTag      Kind = 4
	KindOfsDelta Kind = 6
	KindRefDelta Kind = 7
)

func (k Kind) String() string {
	switch k {
	case KindCommit:
		return "commit"
	case KindTree:
		return "tree"
	case KindBlob:
		return "blob"
	case KindTag:
		return "tag"
	case KindOfsDelta:
		return "ofs-delta"
	case KindRefDelta:
		return "ref-delta"
	default:
		return "unknown"
	}
}

func (k Kind) valid() bool {
	switch k {
	case KindCommit, KindTree, KindBlob, KindTag, KindOfsDelta, KindRefDelta:
		return true
	default:
		return false
	}
}

// EntryHeader is the decoded header of one pack entry: its kind, the
// uncompressed size of its payload (the delta script size, for delta
// entries), and — for delta entries — the base reference.
type EntryHeader struct {
	Kind Kind
	Size int64

	// Only set when Kind == KindOfsDelta.
	BaseOffset int64
	// Only set when Kind == KindRefDelta.
	BaseID plumbing.Hash

	// HeaderLen is the number of bytes this header occupied, so the
	// caller knows where the zlib payload begins.
	HeaderLen int64
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// ReadEntryHeader decodes one pack entry header starting at the current
// position of r, which must be positioned at entryOffset within pack.
//
// Per spec §4.3.2: the three bits below the first byte's continuation flag
// (bits 4-6) hold the kind; the high bit of every header byte is a
// continuation flag; the size is a
// little-endian base-128 integer where the first byte contributes only its
// low four bits (not seven) and each continuation byte contributes seven.
func ReadEntryHeader(r byteReader, entryOffset int64) (*EntryHeader, error) {
	first, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read entry header byte 0: %w", err)
	}
	n := int64(1)

	kind := Kind((first >> 4) & 0x07)
	if !kind.valid() {
		return nil, &plumbing.CorruptPackError{Offset: entryOffset, Reason: fmt.Sprintf("invalid entry kind byte 0x%02x", first)}
	}
	size := int64(first & 0x0f)
	shift := uint(4)
	for first&0x80 != 0 {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read entry header continuation: %w", err)
		}
		n++
		size |= int64(b&0x7f) << shift
		shift += 7
		first = b
	}

	h := &EntryHeader{Kind: kind, Size: size, HeaderLen: n}

	switch kind {
	case KindOfsDelta:
		delta, read, err := readOfsDeltaOffset(r)
		if err != nil {
			return nil, err
		}
		h.HeaderLen += read
		h.BaseOffset = entryOffset - delta
		if h.BaseOffset < 0 {
			return nil, &plumbing.CorruptPackError{Offset: entryOffset, Reason: "ofs-delta base offset out of range"}
		}
	case KindRefDelta:
		var id [plumbing.HashSize]byte
		if _, err := io.ReadFull(r, id[:]); err != nil {
			return nil, fmt.Errorf("read ref-delta base id: %w", err)
		}
		h.BaseID = plumbing.Hash(id)
		h.HeaderLen += int64(plumbing.HashSize)
	}

	return h, nil
}

// readOfsDeltaOffset decodes the big-endian, MSB-continuation, "offset+1"
// varint Git uses to encode ofs-delta's negative base offset (spec §4.3.2).
// Returns the positive distance to subtract from the entry's own offset.
func readOfsDeltaOffset(r io.ByteReader) (int64, int64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, 0, fmt.Errorf("read ofs-delta offset byte 0: %w", err)
	}
	n := int64(1)
	offset := int64(b & 0x7f)
	for b&0x80 != 0 {
		b, err = r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("read ofs-delta offset continuation: %w", err)
		}
		n++
		offset = ((offset + 1) << 7) | int64(b&0x7f)
	}
	return offset, n, nil
}
