// Package zstream wraps zlib-compressed regions of a larger file with
// on-the-fly inflation and a memoizing adapter that lets a consumer seek
// backwards within the already-materialized prefix without re-inflating
// from the start. It is the Go-idiomatic generalization of the teacher's
// delayedObjectReader header/body splice.
package zstream

import (
	"io"

	"github.com/klauspost/compress/zlib"
)

// Source is anything open_deflate can read compressed bytes from, starting
// at an arbitrary offset — a *os.File or any other io.ReaderAt.
type Source io.ReaderAt

// offsetReader adapts a ReaderAt plus a fixed start offset into a plain
// io.Reader, so zlib.NewReader can consume it sequentially.
type offsetReader struct {
	r      io.ReaderAt
	offset int64
}

func (o *offsetReader) Read(p []byte) (int, error) {
	n, err := o.r.ReadAt(p, o.offset)
	o.offset += int64(n)
	return n, err
}

// Stream is a decompressed view over a zlib region: a bounded io.Reader
// whose total output is exactly Len() bytes.
type Stream struct {
	zr     io.ReadCloser
	length int64
	read   int64
}

// OpenDeflate inflates the zlib stream starting at startOffset within
// source. knownLength bounds the returned stream to exactly that many
// uncompressed bytes (pass -1 when the length is not known up front; the
// stream then reads until the zlib stream itself ends).
func OpenDeflate(source Source, startOffset int64, knownLength int64) (*Stream, error) {
	zr, err := zlib.NewReader(&offsetReader{r: source, offset: startOffset})
	if err != nil {
		return nil, err
	}
	return &Stream{zr: zr, length: knownLength}, nil
}

// Len returns the declared uncompressed length, or -1 if unknown.
func (s *Stream) Len() int64 { return s.length }

func (s *Stream) Read(p []byte) (int, error) {
	if s.length >= 0 {
		remaining := s.length - s.read
		if remaining <= 0 {
			return 0, io.EOF
		}
		if int64(len(p)) > remaining {
			p = p[:remaining]
		}
	}
	n, err := s.zr.Read(p)
	s.read += int64(n)
	if err == io.EOF && s.length >= 0 && s.read < s.length {
		err = io.ErrUnexpectedEOF
	}
	if err == nil && s.length >= 0 && s.read == s.length {
		// Confirm the inflater agrees the stream is exhausted; a
		// premature end or extra trailing bytes is a hard error.
		var probe [1]byte
		if _, perr := s.zr.Read(probe[:]); perr != io.EOF {
			if perr == nil {
				err = io.ErrUnexpectedEOF
			} else {
				err = perr
			}
		}
	}
	return n, err
}

// Close releases the underlying inflater. The Source itself is not closed;
// callers own it (typically via handlecache.Cache).
func (s *Stream) Close() error {
	return s.zr.Close()
}
