package zstream

import "io"

// Memoizer wraps a forward-only io.Reader (typically a *Stream) and
// remembers every byte it has yielded, so Seek can rewind into the
// already-materialized prefix in O(1) without touching the underlying
// decompressor, which cannot itself rewind.
type Memoizer struct {
	src io.Reader
	buf []byte
	pos int64
	eof bool
}

// NewMemoizer wraps src.
func NewMemoizer(src io.Reader) *Memoizer {
	return &Memoizer{src: src}
}

// Close closes the wrapped source if it implements io.Closer, so callers
// that only hold a *Memoizer can still release the handle underneath it.
func (m *Memoizer) Close() error {
	if c, ok := m.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Read implements io.Reader, serving from the memoized buffer when possible
// and pulling fresh bytes from the source otherwise.
func (m *Memoizer) Read(p []byte) (int, error) {
	if m.pos < int64(len(m.buf)) {
		n := copy(p, m.buf[m.pos:])
		m.pos += int64(n)
		return n, nil
	}
	if m.eof {
		return 0, io.EOF
	}
	n, err := m.src.Read(p)
	if n > 0 {
		m.buf = append(m.buf, p[:n]...)
		m.pos += int64(n)
	}
	if err == io.EOF {
		m.eof = true
	}
	return n, err
}

// Seek implements io.Seeker for whence == io.SeekStart and io.SeekCurrent.
// Seeking within [0, len(buf)] is O(1). Seeking beyond the materialized
// prefix reads and discards the intervening bytes, since the underlying
// inflater can only move forward.
func (m *Memoizer) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = m.pos + offset
	default:
		return 0, errUnsupportedWhence
	}
	if target < 0 {
		return 0, errNegativePosition
	}
	if target <= int64(len(m.buf)) {
		m.pos = target
		return target, nil
	}
	// Advance the underlying source to materialize the gap. pos must move to
	// the end of the buffered prefix first so the read below pulls fresh
	// source bytes instead of replaying the still-unconsumed buffered range
	// between the old pos and len(buf).
	m.pos = int64(len(m.buf))
	discard := target - m.pos
	buf := make([]byte, 32*1024)
	for discard > 0 && !m.eof {
		chunk := buf
		if int64(len(chunk)) > discard {
			chunk = chunk[:discard]
		}
		n, err := m.Read(chunk)
		discard -= int64(n)
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
	}
	m.pos = int64(len(m.buf))
	return m.pos, nil
}

// Materialized returns the number of bytes memoized so far.
func (m *Memoizer) Materialized() int64 { return int64(len(m.buf)) }

var (
	errUnsupportedWhence = seekError("unsupported whence")
	errNegativePosition  = seekError("negative seek position")
)

type seekError string

func (e seekError) Error() string { return string(e) }

// Concat exposes an ordered list of sources as a single logical stream, read
// in order. It is a thin name over io.MultiReader.
func Concat(parts ...io.Reader) io.Reader {
	return io.MultiReader(parts...)
}
