package zstream

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpenDeflateKnownLength(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	compressed := deflate(t, payload)

	stream, err := OpenDeflate(bytes.NewReader(compressed), 0, int64(len(payload)))
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, int64(len(payload)), stream.Len())
	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestOpenDeflateUnknownLength(t *testing.T) {
	payload := []byte("hello, gitcore")
	compressed := deflate(t, payload)

	stream, err := OpenDeflate(bytes.NewReader(compressed), 0, -1)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, int64(-1), stream.Len())
	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestOpenDeflateWithOffset(t *testing.T) {
	payload := []byte("payload body")
	compressed := deflate(t, payload)
	prefix := []byte("junk-header-bytes")

	blob := append(append([]byte{}, prefix...), compressed...)
	stream, err := OpenDeflate(bytes.NewReader(blob), int64(len(prefix)), int64(len(payload)))
	require.NoError(t, err)
	defer stream.Close()

	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestStreamRejectsTruncatedLength(t *testing.T) {
	payload := []byte("more bytes than declared")
	compressed := deflate(t, payload)

	stream, err := OpenDeflate(bytes.NewReader(compressed), 0, int64(len(payload)-5))
	require.NoError(t, err)
	defer stream.Close()

	_, err = io.ReadAll(stream)
	assert.Error(t, err)
}
