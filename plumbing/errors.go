package plumbing

import (
	"errors"
	"fmt"
)

// ErrAbsent is the sentinel returned when a requested reference does not
// exist. It is not an error: callers that ask "does refs/heads/foo exist"
// are expected to handle it as a normal outcome.
var ErrAbsent = errors.New("absent: reference does not exist")

// ErrCancelled is returned when a context passed to a blocking operation is
// done before the operation completes.
var ErrCancelled = errors.New("cancelled")

// ErrClosed is returned by any operation performed through a handle derived
// from a Repository after that repository's Close method has run (spec §9:
// the cyclic back-reference from a record to its repository is a weak
// handle, invalidated on close rather than kept alive).
var ErrClosed = errors.New("repository closed")

// IoError wraps an underlying filesystem error with the path that produced
// it.
type IoError struct {
	Path  string
	Cause error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error at %q: %v", e.Path, e.Cause)
}

func (e *IoError) Unwrap() error { return e.Cause }

// NewIoError wraps cause as an IoError for path. Returns nil if cause is nil.
func NewIoError(path string, cause error) error {
	if cause == nil {
		return nil
	}
	return &IoError{Path: path, Cause: cause}
}

// ObjectNotFoundError is returned when an object id cannot be located in
// either the loose or the packed object stores.
type ObjectNotFoundError struct {
	ID Hash
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object not found: %s", e.ID)
}

// CorruptPackError reports a structural violation of the pack/pack-index
// wire format: bad magic, truncated entries, a zlib failure, an exceeded
// delta depth, or a detected delta cycle.
type CorruptPackError struct {
	Path   string
	Offset int64
	Reason string
}

func (e *CorruptPackError) Error() string {
	return fmt.Sprintf("corrupt pack %q at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// MalformedObjectError reports bytes that decompress cleanly but do not form
// a valid commit/tree/tag body.
type MalformedObjectError struct {
	ID     Hash
	Reason string
}

func (e *MalformedObjectError) Error() string {
	return fmt.Sprintf("malformed object %s: %s", e.ID, e.Reason)
}

// MalformedIndexError reports an index file that does not conform to the
// DIRC layout.
type MalformedIndexError struct {
	Reason string
}

func (e *MalformedIndexError) Error() string {
	return fmt.Sprintf("malformed index: %s", e.Reason)
}

// MalformedRefError reports a reference body that is neither a hex object id
// nor a `ref: <target>` redirect.
type MalformedRefError struct {
	Name   string
	Reason string
}

func (e *MalformedRefError) Error() string {
	return fmt.Sprintf("malformed reference %q: %s", e.Name, e.Reason)
}
