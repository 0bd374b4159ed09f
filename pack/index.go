// Package pack implements access to Git pack files: index lookup (fan-out +
// binary search + offset table), pack entry header decoding, and ofs-delta /
// ref-delta chain resolution. The bit-level decode here is grounded on
// Nivl-git-go's ginternals/packfile package — the teacher's own pack code
// (modules/zeta/backend/pack) implements a custom, non-delta, BLAKE3-keyed
// format and could not serve this component.
package pack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/coldforge/gitcore/plumbing"
)

var indexMagic = [4]byte{0xff, 't', 'O', 'c'}

const indexVersion = 2

const (
	fanoutEntries = 256
	fanoutSize    = fanoutEntries * 4
	msbOffsetFlag = uint32(1) << 31
	offset31Mask  = msbOffsetFlag - 1
)

// Index is a fully-parsed pack index (.idx) file: the fan-out table, the
// sorted SHA table, the per-object CRC table, and the offset table
// (including any 64-bit extension entries).
type Index struct {
	fanout    [fanoutEntries]uint32
	shas      []plumbing.Hash
	crcs      []uint32
	offsets32 []uint32
	offsets64 []uint64
	PackSHA   plumbing.Hash
	IdxSHA    plumbing.Hash
}

// ParseIndex reads a complete .idx v2 stream from r.
func ParseIndex(r io.Reader) (*Index, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}
	if !bytes.Equal(header[:4], indexMagic[:]) {
		return nil, &plumbing.MalformedIndexError{Reason: "bad index magic"}
	}
	version := binary.BigEndian.Uint32(header[4:8])
	if version != indexVersion {
		return nil, &plumbing.MalformedIndexError{Reason: fmt.Sprintf("unsupported index version %d", version)}
	}

	idx := &Index{}
	fanoutRaw := make([]byte, fanoutSize)
	if _, err := io.ReadFull(r, fanoutRaw); err != nil {
		return nil, fmt.Errorf("read fanout table: %w", err)
	}
	for i := 0; i < fanoutEntries; i++ {
		idx.fanout[i] = binary.BigEndian.Uint32(fanoutRaw[i*4 : i*4+4])
	}
	count := int(idx.fanout[fanoutEntries-1])

	idx.shas = make([]plumbing.Hash, count)
	shaBuf := make([]byte, plumbing.HashSize)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, shaBuf); err != nil {
			return nil, fmt.Errorf("read sha %d: %w", i, err)
		}
		copy(idx.shas[i][:], shaBuf)
	}

	idx.crcs = make([]uint32, count)
	var u32 [4]byte
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return nil, fmt.Errorf("read crc %d: %w", i, err)
		}
		idx.crcs[i] = binary.BigEndian.Uint32(u32[:])
	}

	idx.offsets32 = make([]uint32, count)
	large := 0
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return nil, fmt.Errorf("read offset %d: %w", i, err)
		}
		v := binary.BigEndian.Uint32(u32[:])
		idx.offsets32[i] = v
		if v&msbOffsetFlag != 0 {
			idx := int(v & offset31Mask)
			if idx+1 > large {
				large = idx + 1
			}
		}
	}

	if large > 0 {
		idx.offsets64 = make([]uint64, large)
		var u64 [8]byte
		for i := 0; i < large; i++ {
			if _, err := io.ReadFull(r, u64[:]); err != nil {
				return nil, fmt.Errorf("read 64-bit offset %d: %w", i, err)
			}
			idx.offsets64[i] = binary.BigEndian.Uint64(u64[:])
		}
	}

	var packSha, idxSha [plumbing.HashSize]byte
	if _, err := io.ReadFull(r, packSha[:]); err != nil {
		return nil, fmt.Errorf("read pack checksum: %w", err)
	}
	if _, err := io.ReadFull(r, idxSha[:]); err != nil {
		return nil, fmt.Errorf("read index checksum: %w", err)
	}
	idx.PackSHA = plumbing.Hash(packSha)
	idx.IdxSHA = plumbing.Hash(idxSha)

	return idx, nil
}

// Count returns the number of objects indexed.
func (idx *Index) Count() int { return len(idx.shas) }

// FindOffset looks up id via the fan-out table + binary search described in
// the spec (§4.3.1), returning its byte offset within the paired pack file.
// The second return value is false when id is not present in this index.
func (idx *Index) FindOffset(id plumbing.Hash) (int64, bool) {
	b := id[0]
	lo := uint32(0)
	if b > 0 {
		lo = idx.fanout[b-1]
	}
	hi := idx.fanout[b]

	i := sort.Search(int(hi-lo), func(i int) bool {
		return bytes.Compare(idx.shas[lo+uint32(i)][:], id[:]) >= 0
	})
	pos := lo + uint32(i)
	if pos >= hi || idx.shas[pos] != id {
		return 0, false
	}

	raw := idx.offsets32[pos]
	if raw&msbOffsetFlag == 0 {
		return int64(raw), true
	}
	largeIdx := raw & offset31Mask
	if int(largeIdx) >= len(idx.offsets64) {
		return 0, false
	}
	return int64(idx.offsets64[largeIdx]), true
}

// CRC32 returns the stored CRC for the entry at id, if present.
func (idx *Index) CRC32(id plumbing.Hash) (uint32, bool) {
	b := id[0]
	lo := uint32(0)
	if b > 0 {
		lo = idx.fanout[b-1]
	}
	hi := idx.fanout[b]
	i := sort.Search(int(hi-lo), func(i int) bool {
		return bytes.Compare(idx.shas[lo+uint32(i)][:], id[:]) >= 0
	})
	pos := lo + uint32(i)
	if pos >= hi || idx.shas[pos] != id {
		return 0, false
	}
	return idx.crcs[pos], true
}

// Entries returns every id this index covers, in sorted order.
func (idx *Index) Entries() []plumbing.Hash {
	return idx.shas
}
