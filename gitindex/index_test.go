package gitindex

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"testing"

	"github.com/coldforge/gitcore/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildEntry encodes one v2-style index entry (no extended flags) with a
// name padded to an 8-byte boundary, matching readEntry's expectations.
func buildEntry(name string, id plumbing.Hash, mode uint32) []byte {
	var buf bytes.Buffer
	var u32 [4]byte
	writeU32 := func(v uint32) {
		binary.BigEndian.PutUint32(u32[:], v)
		buf.Write(u32[:])
	}
	writeU32(0) // ctime sec
	writeU32(0) // ctime nsec
	writeU32(1700000000)
	writeU32(0)
	writeU32(0) // dev
	writeU32(0) // ino
	writeU32(mode)
	writeU32(0) // uid
	writeU32(0) // gid
	writeU32(uint32(len(name)))
	buf.Write(id[:])

	flags := uint16(len(name))
	if flags > flagNameMax {
		flags = flagNameMax
	}
	var u16 [2]byte
	binary.BigEndian.PutUint16(u16[:], flags)
	buf.Write(u16[:])

	buf.WriteString(name)
	buf.WriteByte(0)

	consumed := entryFixedSize + len(name) + 1
	pad := 8 - consumed%8
	if pad == 8 {
		pad = 0
	}
	buf.Write(make([]byte, pad))
	return buf.Bytes()
}

func buildIndex(t *testing.T, entries [][]byte) []byte {
	t.Helper()
	var body bytes.Buffer
	body.WriteString("DIRC")
	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], 2)
	body.Write(u32[:])
	binary.BigEndian.PutUint32(u32[:], uint32(len(entries)))
	body.Write(u32[:])
	for _, e := range entries {
		body.Write(e)
	}
	sum := sha1.Sum(body.Bytes())
	body.Write(sum[:])
	return body.Bytes()
}

func TestParseIndexEmpty(t *testing.T) {
	raw := buildIndex(t, nil)
	idx, err := Parse(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), idx.Version)
	assert.Empty(t, idx.Entries)
}

func TestParseIndexEntries(t *testing.T) {
	id1 := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	id2 := plumbing.NewHash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	raw := buildIndex(t, [][]byte{
		buildEntry("README.md", id1, 0o100644),
		buildEntry("src/main.go", id2, 0o100644),
	})
	idx, err := Parse(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	assert.Equal(t, "README.md", idx.Entries[0].Path)
	assert.Equal(t, id1, idx.Entries[0].ID)
	assert.Equal(t, StageNormal, idx.Entries[0].Stage)
	assert.Equal(t, "src/main.go", idx.Entries[1].Path)
	assert.Equal(t, id2, idx.Entries[1].ID)
}

func TestParseIndexBadMagic(t *testing.T) {
	raw := buildIndex(t, nil)
	raw[0] = 'X'
	// Re-checksum so the failure is specifically about the magic, not the
	// trailer.
	body := raw[:len(raw)-plumbing.HashSize]
	sum := sha1.Sum(body)
	copy(raw[len(raw)-plumbing.HashSize:], sum[:])

	_, err := Parse(bytes.NewReader(raw))
	require.Error(t, err)
	var malformed *plumbing.MalformedIndexError
	assert.ErrorAs(t, err, &malformed)
}

func TestParseIndexChecksumMismatch(t *testing.T) {
	raw := buildIndex(t, nil)
	raw[len(raw)-1] ^= 0xff
	_, err := Parse(bytes.NewReader(raw))
	require.Error(t, err)
	var malformed *plumbing.MalformedIndexError
	assert.ErrorAs(t, err, &malformed)
}

func TestParseIndexUnsupportedVersion(t *testing.T) {
	raw := buildIndex(t, nil)
	binary.BigEndian.PutUint32(raw[4:8], 9)
	body := raw[:len(raw)-plumbing.HashSize]
	sum := sha1.Sum(body)
	copy(raw[len(raw)-plumbing.HashSize:], sum[:])

	_, err := Parse(bytes.NewReader(raw))
	require.Error(t, err)
}
