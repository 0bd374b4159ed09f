// Package gitindex parses Git's index file ("DIRC" format, versions 2-4):
// the staged snapshot the working-directory status engine compares against
// HEAD's tree and the worktree (spec §4.7.1). No teacher-native index
// reader survived retrieval; the decode shape (reader in, struct out,
// error wrapping) follows modules/zeta/backend/decode.go's idiom directly.
package gitindex

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/coldforge/gitcore/plumbing"
)

var dircMagic = [4]byte{'D', 'I', 'R', 'C'}

const (
	minVersion = 2
	maxVersion = 4

	// entryFixedSize is every field preceding the name: two (sec, nsec)
	// pairs for ctime/mtime, dev, ino, mode, uid, gid, size, a 20-byte sha,
	// and a 16-bit flags word.
	entryFixedSize = 2*2*4 + 4 + 4 + 4 + 4 + 4 + 4 + plumbing.HashSize + 2

	flagExtended   = 0x4000
	flagStageMask  = 0x3000
	flagStageShift = 12
	flagNameMask   = 0x0fff
	flagNameMax    = 0x0fff

	extFlagSkipWorktree = 0x4000
	extFlagIntentToAdd  = 0x2000
)

// Stage distinguishes the normal (merged) index slot from the three
// conflict stages Git uses during an unresolved merge.
type Stage uint8

const (
	StageNormal Stage = 0
	StageBase   Stage = 1
	StageOurs   Stage = 2
	StageTheirs Stage = 3
)

// Entry is one parsed index record (spec §3 Index entry).
type Entry struct {
	CTimeSec, CTimeNano uint32
	MTimeSec, MTimeNano uint32
	Dev, Ino            uint32
	Mode                uint32
	UID, GID            uint32
	Size                uint32
	ID                  plumbing.Hash
	Stage               Stage
	SkipWorktree        bool
	IntentToAdd         bool
	Path                string
}

// Extension is an index extension's raw, unparsed form: the 4-byte
// signature and its payload. Every extension, "TREE" included, is surfaced
// opaque; none is interpreted.
type Extension struct {
	Signature string
	Data      []byte
}

// Index is a fully-parsed index file.
type Index struct {
	Version    uint32
	Entries    []*Entry
	Extensions []*Extension
	Checksum   plumbing.Hash
}

// Parse reads a complete index file from r and validates its trailing
// SHA-1 against the bytes that preceded it. The whole stream is buffered
// up front: unlike the pack format, nothing about the index benefits from
// incremental reads, and buffering sidesteps the only real ambiguity in
// the format — telling a final extension apart from the fixed-width
// trailing checksum requires knowing where the stream ends.
func Parse(r io.Reader) (*Index, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if len(all) < 12+plumbing.HashSize {
		return nil, &plumbing.MalformedIndexError{Reason: "index shorter than header+checksum"}
	}
	body, trailer := all[:len(all)-plumbing.HashSize], all[len(all)-plumbing.HashSize:]

	sum := sha1.Sum(body)
	var checksum, computed plumbing.Hash
	copy(checksum[:], trailer)
	copy(computed[:], sum[:])
	if checksum != computed {
		return nil, &plumbing.MalformedIndexError{Reason: "index checksum mismatch"}
	}

	br := bufio.NewReader(bytes.NewReader(body))

	var header [12]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}
	if header[0] != dircMagic[0] || header[1] != dircMagic[1] || header[2] != dircMagic[2] || header[3] != dircMagic[3] {
		return nil, &plumbing.MalformedIndexError{Reason: "bad DIRC magic"}
	}
	version := binary.BigEndian.Uint32(header[4:8])
	if version < minVersion || version > maxVersion {
		return nil, &plumbing.MalformedIndexError{Reason: fmt.Sprintf("unsupported index version %d", version)}
	}
	count := binary.BigEndian.Uint32(header[8:12])

	idx := &Index{Version: version, Checksum: checksum}
	var prevName string
	for i := uint32(0); i < count; i++ {
		e, name, err := readEntry(br, version, prevName)
		if err != nil {
			return nil, fmt.Errorf("read entry %d: %w", i, err)
		}
		e.Path = name
		prevName = name
		idx.Entries = append(idx.Entries, e)
	}

	for {
		var sig [4]byte
		if _, err := io.ReadFull(br, sig[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read extension signature: %w", err)
		}
		var lenBuf [4]byte
		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("read extension length: %w", err)
		}
		length := binary.BigEndian.Uint32(lenBuf[:])
		data := make([]byte, length)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, fmt.Errorf("read extension %q body: %w", sig, err)
		}
		idx.Extensions = append(idx.Extensions, &Extension{Signature: string(sig[:]), Data: data})
	}

	return idx, nil
}

// readEntry decodes one entry, starting immediately after the previous
// entry (or the header, for the first). prevName is used by v4's
// prefix-compressed name encoding.
func readEntry(br *bufio.Reader, version uint32, prevName string) (*Entry, string, error) {
	var fixed [entryFixedSize]byte
	n, err := io.ReadFull(br, fixed[:])
	if err != nil {
		return nil, "", err
	}
	consumed := int64(n)

	e := &Entry{
		CTimeSec:  binary.BigEndian.Uint32(fixed[0:4]),
		CTimeNano: binary.BigEndian.Uint32(fixed[4:8]),
		MTimeSec:  binary.BigEndian.Uint32(fixed[8:12]),
		MTimeNano: binary.BigEndian.Uint32(fixed[12:16]),
		Dev:       binary.BigEndian.Uint32(fixed[16:20]),
		Ino:       binary.BigEndian.Uint32(fixed[20:24]),
		Mode:      binary.BigEndian.Uint32(fixed[24:28]),
		UID:       binary.BigEndian.Uint32(fixed[28:32]),
		GID:       binary.BigEndian.Uint32(fixed[32:36]),
		Size:      binary.BigEndian.Uint32(fixed[36:40]),
	}
	copy(e.ID[:], fixed[40:40+plumbing.HashSize])
	flags := binary.BigEndian.Uint16(fixed[40+plumbing.HashSize:])
	e.Stage = Stage((flags & flagStageMask) >> flagStageShift)
	nameLen := int(flags & flagNameMask)

	if flags&flagExtended != 0 {
		if version < 3 {
			return nil, "", &plumbing.MalformedIndexError{Reason: "extended flag set in v2 index"}
		}
		var ext [2]byte
		if _, err := io.ReadFull(br, ext[:]); err != nil {
			return nil, "", err
		}
		consumed += 2
		extFlags := binary.BigEndian.Uint16(ext[:])
		e.SkipWorktree = extFlags&extFlagSkipWorktree != 0
		e.IntentToAdd = extFlags&extFlagIntentToAdd != 0
	}

	var name string
	if version == 4 {
		strip, stripLen, err := readVarint(br)
		if err != nil {
			return nil, "", fmt.Errorf("read v4 name strip length: %w", err)
		}
		consumed += stripLen
		suffix, suffixLen, err := readCString(br)
		if err != nil {
			return nil, "", err
		}
		consumed += suffixLen
		if int(strip) > len(prevName) {
			return nil, "", &plumbing.MalformedIndexError{Reason: "v4 name strip length exceeds previous name"}
		}
		name = prevName[:len(prevName)-int(strip)] + suffix
	} else {
		raw, nLen, err := readFixedName(br, nameLen)
		if err != nil {
			return nil, "", err
		}
		consumed += nLen
		name = raw

		// Entries are NUL-padded to an 8-byte boundary measured from the
		// start of the entry, including the extended-flags word if
		// present.
		pad := 8 - int(consumed%8)
		if pad == 8 {
			pad = 0
		}
		if pad > 0 {
			if _, err := io.CopyN(io.Discard, br, int64(pad)); err != nil {
				return nil, "", err
			}
		}
	}

	return e, name, nil
}

// readFixedName reads a NUL-terminated name. When nameLen < flagNameMax the
// name is exactly that many bytes followed by a NUL; otherwise (0xFFF
// sentinel for "too long to fit in 12 bits") it reads until the NUL.
func readFixedName(br *bufio.Reader, nameLen int) (string, int64, error) {
	if nameLen < flagNameMax {
		buf := make([]byte, nameLen+1)
		if _, err := io.ReadFull(br, buf); err != nil {
			return "", 0, fmt.Errorf("read entry name: %w", err)
		}
		return string(buf[:nameLen]), int64(len(buf)), nil
	}
	s, n, err := readCString(br)
	return s, n, err
}

func readCString(br *bufio.Reader) (string, int64, error) {
	raw, err := br.ReadString(0)
	if err != nil {
		return "", 0, fmt.Errorf("read NUL-terminated string: %w", err)
	}
	return strings.TrimSuffix(raw, "\x00"), int64(len(raw)), nil
}

// readVarint decodes index v4's name-prefix strip-length varint: the same
// MSB-continuation, "value = (value+1)<<7 | low7" encoding the pack layer
// uses for ofs-delta's negative offset (spec §4.3.2), reused here since
// Git's on-disk format shares the encoding between the two components.
func readVarint(br *bufio.Reader) (int64, int64, error) {
	b, err := br.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	n := int64(1)
	v := int64(b & 0x7f)
	for b&0x80 != 0 {
		b, err = br.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		n++
		v = ((v + 1) << 7) | int64(b&0x7f)
	}
	return v, n, nil
}
