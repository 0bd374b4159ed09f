package pack

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/coldforge/gitcore/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEntryHeaderBlob(t *testing.T) {
	// kind=blob(3), size=200 -> 0b0011_1000 with continuation, low nibble 8,
	// remaining bits (200>>4=12) in the next byte with high bit clear.
	raw := []byte{0b1011_1000, 0b0000_1100}
	h, err := ReadEntryHeader(bufio.NewReader(bytes.NewReader(raw)), 0)
	require.NoError(t, err)
	assert.Equal(t, KindBlob, h.Kind)
	assert.EqualValues(t, 200, h.Size)
	assert.EqualValues(t, 2, h.HeaderLen)
}

func TestReadEntryHeaderSmallSize(t *testing.T) {
	// kind=commit(1), size=5, single byte, no continuation.
	raw := []byte{0b0001_0101}
	h, err := ReadEntryHeader(bufio.NewReader(bytes.NewReader(raw)), 0)
	require.NoError(t, err)
	assert.Equal(t, KindCommit, h.Kind)
	assert.EqualValues(t, 5, h.Size)
	assert.EqualValues(t, 1, h.HeaderLen)
}

func TestReadEntryHeaderRefDelta(t *testing.T) {
	var id plumbing.Hash
	id[0] = 0x42
	raw := append([]byte{0b0111_0011}, id[:]...) // kind=ref-delta(7), size=3
	h, err := ReadEntryHeader(bufio.NewReader(bytes.NewReader(raw)), 0)
	require.NoError(t, err)
	assert.Equal(t, KindRefDelta, h.Kind)
	assert.EqualValues(t, 3, h.Size)
	assert.Equal(t, id, h.BaseID)
	assert.EqualValues(t, 1+plumbing.HashSize, h.HeaderLen)
}

func TestReadEntryHeaderOfsDelta(t *testing.T) {
	// kind=ofs-delta(6), size=1, single offset byte 0x05 (no continuation).
	raw := []byte{0b0110_0001, 0x05}
	h, err := ReadEntryHeader(bufio.NewReader(bytes.NewReader(raw)), 100)
	require.NoError(t, err)
	assert.Equal(t, KindOfsDelta, h.Kind)
	assert.EqualValues(t, 100-5, h.BaseOffset)
	assert.EqualValues(t, 2, h.HeaderLen)
}

func TestReadEntryHeaderInvalidKind(t *testing.T) {
	raw := []byte{0b0000_0101} // kind bits 0 is not a valid kind
	_, err := ReadEntryHeader(bufio.NewReader(bytes.NewReader(raw)), 0)
	assert.Error(t, err)
}

func TestReadEntryHeaderOfsDeltaOutOfRange(t *testing.T) {
	raw := []byte{0b0110_0001, 0x7f}
	_, err := ReadEntryHeader(bufio.NewReader(bytes.NewReader(raw)), 1)
	assert.Error(t, err)
}
