package plumbing

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashRoundTrip(t *testing.T) {
	const hex = "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	h := NewHash(hex)
	assert.Equal(t, hex, h.String())
	assert.False(t, h.IsZero())
	assert.True(t, ZeroHash.IsZero())
}

func TestValidateHashHex(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"valid lowercase", "da39a3ee5e6b4b0d3255bfef95601890afd80709", true},
		{"valid uppercase", "DA39A3EE5E6B4B0D3255BFEF95601890AFD80709", true},
		{"too short", "da39a3", false},
		{"bad char", "zz39a3ee5e6b4b0d3255bfef95601890afd80709", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ValidateHashHex(c.in))
		})
	}
}

func TestHashesSort(t *testing.T) {
	a := NewHash("ffffffffffffffffffffffffffffffffffffffff")
	b := NewHash("0000000000000000000000000000000000000001")
	hashes := []Hash{a, b}
	HashesSort(hashes)
	assert.Equal(t, b, hashes[0])
	assert.True(t, sort.IsSorted(HashSlice(hashes)))
}

func TestHasherSum(t *testing.T) {
	h := NewHasher()
	_, err := h.Write([]byte("blob 0\x00"))
	require.NoError(t, err)
	sum := h.Sum()
	assert.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", sum.String())
}
