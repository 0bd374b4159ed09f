package zstream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeTrackingReader struct {
	io.Reader
	closed bool
}

func (c *closeTrackingReader) Close() error {
	c.closed = true
	return nil
}

func TestMemoizerReadThenRewind(t *testing.T) {
	src := bytes.NewReader([]byte("0123456789"))
	m := NewMemoizer(src)

	buf := make([]byte, 4)
	n, err := m.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "0123", string(buf))
	assert.EqualValues(t, 4, m.Materialized())

	pos, err := m.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 0, pos)

	n, err = m.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(buf[:n]))
}

func TestMemoizerSeekForwardSkipsSource(t *testing.T) {
	src := bytes.NewReader([]byte("abcdefghij"))
	m := NewMemoizer(src)

	pos, err := m.Seek(5, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 5, pos)
	assert.EqualValues(t, 5, m.Materialized())

	rest, err := io.ReadAll(m)
	require.NoError(t, err)
	assert.Equal(t, "fghij", string(rest))
}

func TestMemoizerSeekCurrent(t *testing.T) {
	m := NewMemoizer(bytes.NewReader([]byte("abcdef")))
	buf := make([]byte, 2)
	_, err := io.ReadFull(m, buf)
	require.NoError(t, err)

	pos, err := m.Seek(1, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 3, pos)

	rest, err := io.ReadAll(m)
	require.NoError(t, err)
	assert.Equal(t, "def", string(rest))
}

func TestMemoizerSeekNegativeErrors(t *testing.T) {
	m := NewMemoizer(bytes.NewReader([]byte("abc")))
	_, err := m.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}

func TestMemoizerSeekUnsupportedWhence(t *testing.T) {
	m := NewMemoizer(bytes.NewReader([]byte("abc")))
	_, err := m.Seek(0, io.SeekEnd)
	assert.Error(t, err)
}

func TestMemoizerCloseDelegatesToCloser(t *testing.T) {
	src := &closeTrackingReader{Reader: bytes.NewReader([]byte("x"))}
	m := NewMemoizer(src)
	require.NoError(t, m.Close())
	assert.True(t, src.closed)
}

func TestMemoizerCloseNoCloser(t *testing.T) {
	m := NewMemoizer(bytes.NewReader([]byte("x")))
	assert.NoError(t, m.Close())
}

func TestConcatJoinsReadersInOrder(t *testing.T) {
	r := Concat(bytes.NewReader([]byte("foo")), bytes.NewReader([]byte("bar")))
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "foobar", string(got))
}
