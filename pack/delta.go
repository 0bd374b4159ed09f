package pack

import (
	"bytes"
	"fmt"
	"io"

	"github.com/coldforge/gitcore/plumbing"
)

// DefaultMaxDeltaDepth is the spec's default bound on delta chain length.
const DefaultMaxDeltaDepth = 50

// readDeltaSize decodes one of the two base-128 little-endian varints (with
// no 4-bit-first-chunk twist — that twist is only for entry headers) that
// prefix every delta script: source_size and target_size.
func readDeltaSize(r io.ByteReader) (int64, error) {
	size := int64(0)
	shift := uint(0)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		size |= int64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return size, nil
}

// ApplyDelta reproduces the target bytes described by script against base,
// per spec §4.3.3: a leading pair of base-128 sizes, then a sequence of
// copy (high bit set) / insert (high bit clear, low bits = literal count)
// instructions. A zero instruction byte is invalid.
func ApplyDelta(base []byte, script []byte) ([]byte, error) {
	r := bytes.NewReader(script)

	sourceSize, err := readDeltaSize(r)
	if err != nil {
		return nil, fmt.Errorf("read delta source size: %w", err)
	}
	if sourceSize != int64(len(base)) {
		return nil, &plumbing.CorruptPackError{Reason: fmt.Sprintf("delta source size %d does not match base length %d", sourceSize, len(base))}
	}
	targetSize, err := readDeltaSize(r)
	if err != nil {
		return nil, fmt.Errorf("read delta target size: %w", err)
	}

	out := make([]byte, 0, targetSize)
	for {
		opByte, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch {
		case opByte == 0:
			return nil, &plumbing.CorruptPackError{Reason: "invalid delta instruction byte 0x00"}
		case opByte&0x80 != 0:
			// Copy instruction: the low 7 bits select which of 4 offset
			// bytes and 3 length bytes are present, little-endian.
			var offset, length uint32
			for i := uint(0); i < 4; i++ {
				if opByte&(1<<i) != 0 {
					b, err := r.ReadByte()
					if err != nil {
						return nil, fmt.Errorf("read copy offset byte %d: %w", i, err)
					}
					offset |= uint32(b) << (8 * i)
				}
			}
			for i := uint(0); i < 3; i++ {
				if opByte&(1<<(4+i)) != 0 {
					b, err := r.ReadByte()
					if err != nil {
						return nil, fmt.Errorf("read copy length byte %d: %w", i, err)
					}
					length |= uint32(b) << (8 * i)
				}
			}
			if length == 0 {
				length = 0x10000
			}
			if int64(offset)+int64(length) > int64(len(base)) {
				return nil, &plumbing.CorruptPackError{Reason: "delta copy instruction out of bounds"}
			}
			out = append(out, base[offset:offset+length]...)
		default:
			// Insert instruction: the low 7 bits are the literal count.
			n := int(opByte)
			lit := make([]byte, n)
			if _, err := io.ReadFull(r, lit); err != nil {
				return nil, fmt.Errorf("read insert literal: %w", err)
			}
			out = append(out, lit...)
		}
	}

	if int64(len(out)) != targetSize {
		return nil, &plumbing.CorruptPackError{Reason: fmt.Sprintf("delta produced %d bytes, expected %d", len(out), targetSize)}
	}
	return out, nil
}
