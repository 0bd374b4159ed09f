package pack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func varint(n int) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if n == 0 {
			break
		}
	}
	return out
}

func TestApplyDeltaCopyAndInsert(t *testing.T) {
	base := []byte("The quick brown fox jumps over the lazy dog")

	var script []byte
	script = append(script, varint(len(base))...) // source size
	target := "The quick fox, the lazy dog"
	script = append(script, varint(len(target))...) // target size

	// copy "The quick " (offset 0, length 10)
	script = append(script, 0b1001_0001, 0x00, 0x0a)
	// insert "fox, "
	ins1 := []byte("fox, ")
	script = append(script, byte(len(ins1)))
	script = append(script, ins1...)
	// copy "the lazy dog" (offset 31, length 12)
	offset := 31
	length := len("the lazy dog") // 12
	script = append(script, 0b1001_0001, byte(offset), byte(length))

	out, err := ApplyDelta(base, script)
	require.NoError(t, err)
	assert.Equal(t, "The quick fox, the lazy dog", string(out))
}

func TestApplyDeltaSourceSizeMismatch(t *testing.T) {
	base := []byte("hello")
	var script []byte
	script = append(script, varint(999)...)
	script = append(script, varint(0)...)
	_, err := ApplyDelta(base, script)
	assert.Error(t, err)
}

func TestApplyDeltaInvalidOpcodeZero(t *testing.T) {
	base := []byte("hello")
	var script []byte
	script = append(script, varint(len(base))...)
	script = append(script, varint(1)...)
	script = append(script, 0x00)
	_, err := ApplyDelta(base, script)
	assert.Error(t, err)
}

func TestApplyDeltaCopyOutOfBounds(t *testing.T) {
	base := []byte("hello")
	var script []byte
	script = append(script, varint(len(base))...)
	script = append(script, varint(10)...)
	script = append(script, 0b1001_0001, 0x00, 0x0a) // length 10 > len(base)
	_, err := ApplyDelta(base, script)
	assert.Error(t, err)
}

func TestApplyDeltaTargetSizeMismatch(t *testing.T) {
	base := []byte("hello")
	var script []byte
	script = append(script, varint(len(base))...)
	script = append(script, varint(3)...) // declare 3 but insert 5
	ins := []byte("abcde")
	script = append(script, byte(len(ins)))
	script = append(script, ins...)
	_, err := ApplyDelta(base, script)
	assert.Error(t, err)
}
