package pack

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/handlecache"
	"github.com/coldforge/gitcore/plumbing"
	"github.com/coldforge/gitcore/zstream"
)

// packFileMagic is the 4-byte magic at the start of every .pack file.
var packFileMagic = [4]byte{'P', 'A', 'C', 'K'}

const packFileVersion = 2

// BaseLookup resolves a ref-delta's base object id to its fully-materialized
// kind and bytes, possibly by consulting other packs or the loose object
// store. A standalone Packfile used without a Set resolves ref-delta bases
// only within itself.
type BaseLookup interface {
	Base(ctx context.Context, id plumbing.Hash) (Kind, []byte, error)
}

// Packfile is one open pack (.pack + .idx pair), with its index fully
// parsed and its data file accessed through the shared handle cache.
type Packfile struct {
	packPath      string
	idx           *Index
	handles       *handlecache.Cache
	objectCount   uint32
	maxDeltaDepth int
}

// Open parses idxPath's index and validates packPath's 12-byte header,
// returning a Packfile ready to resolve objects. maxDeltaDepth <= 0 uses
// DefaultMaxDeltaDepth.
func Open(fs filesystem.FileSystem, handles *handlecache.Cache, packPath, idxPath string, maxDeltaDepth int) (*Packfile, error) {
	if maxDeltaDepth <= 0 {
		maxDeltaDepth = DefaultMaxDeltaDepth
	}
	idxHandle, err := fs.OpenRead(idxPath)
	if err != nil {
		return nil, plumbing.NewIoError(idxPath, err)
	}
	defer idxHandle.Close()
	idx, err := ParseIndex(bufio.NewReader(idxHandle))
	if err != nil {
		return nil, fmt.Errorf("parse index %s: %w", idxPath, err)
	}

	packHandle, err := handles.Open(packPath)
	if err != nil {
		return nil, plumbing.NewIoError(packPath, err)
	}
	var header [12]byte
	if _, err := io.ReadFull(packHandle, header[:]); err != nil {
		handles.Release(packPath, packHandle)
		return nil, &plumbing.CorruptPackError{Path: packPath, Reason: fmt.Sprintf("read pack header: %v", err)}
	}
	handles.Release(packPath, packHandle)
	if header[0] != packFileMagic[0] || header[1] != packFileMagic[1] || header[2] != packFileMagic[2] || header[3] != packFileMagic[3] {
		return nil, &plumbing.CorruptPackError{Path: packPath, Reason: "bad pack magic"}
	}
	version := be32(header[4:8])
	if version != packFileVersion {
		return nil, &plumbing.CorruptPackError{Path: packPath, Reason: fmt.Sprintf("unsupported pack version %d", version)}
	}
	count := be32(header[8:12])

	return &Packfile{
		packPath:      packPath,
		idx:           idx,
		handles:       handles,
		objectCount:   count,
		maxDeltaDepth: maxDeltaDepth,
	}, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Index exposes the parsed pack index, e.g. for Set's multi-pack probing.
func (p *Packfile) Index() *Index { return p.idx }

// Has reports whether id is present in this pack's index.
func (p *Packfile) Has(id plumbing.Hash) bool {
	_, ok := p.idx.FindOffset(id)
	return ok
}

// Get fully resolves id (following any delta chain) and returns its final
// kind plus materialized bytes. lookup resolves ref-delta bases that are not
// in this pack; pass nil to restrict ref-delta resolution to this pack only.
func (p *Packfile) Get(ctx context.Context, id plumbing.Hash, lookup BaseLookup) (Kind, []byte, error) {
	offset, ok := p.idx.FindOffset(id)
	if !ok {
		return 0, nil, &plumbing.ObjectNotFoundError{ID: id}
	}
	return p.resolveAt(ctx, offset, 0, make(map[int64]bool), lookup)
}

func (p *Packfile) resolveAt(ctx context.Context, offset int64, depth int, visited map[int64]bool, lookup BaseLookup) (Kind, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, plumbing.ErrCancelled
	}
	if depth > p.maxDeltaDepth {
		return 0, nil, &plumbing.CorruptPackError{Path: p.packPath, Offset: offset, Reason: "max delta depth exceeded"}
	}
	if visited[offset] {
		return 0, nil, &plumbing.CorruptPackError{Path: p.packPath, Offset: offset, Reason: "delta cycle detected"}
	}
	visited[offset] = true

	handle, err := p.handles.Open(p.packPath)
	if err != nil {
		return 0, nil, plumbing.NewIoError(p.packPath, err)
	}
	defer p.handles.Release(p.packPath, handle)

	if _, err := handle.Seek(offset, io.SeekStart); err != nil {
		return 0, nil, plumbing.NewIoError(p.packPath, err)
	}
	br := bufio.NewReader(handle)
	hdr, err := ReadEntryHeader(br, offset)
	if err != nil {
		return 0, nil, err
	}

	payloadOffset := offset + hdr.HeaderLen

	switch hdr.Kind {
	case KindCommit, KindTree, KindBlob, KindTag:
		data, err := p.inflateAt(payloadOffset, hdr.Size)
		if err != nil {
			return 0, nil, err
		}
		return hdr.Kind, data, nil

	case KindOfsDelta:
		baseKind, baseData, err := p.resolveAt(ctx, hdr.BaseOffset, depth+1, visited, lookup)
		if err != nil {
			return 0, nil, err
		}
		script, err := p.inflateAt(payloadOffset, hdr.Size)
		if err != nil {
			return 0, nil, err
		}
		target, err := ApplyDelta(baseData, script)
		if err != nil {
			return 0, nil, annotatePackError(err, p.packPath, offset)
		}
		return baseKind, target, nil

	case KindRefDelta:
		var baseKind Kind
		var baseData []byte
		if baseOffset, ok := p.idx.FindOffset(hdr.BaseID); ok {
			baseKind, baseData, err = p.resolveAt(ctx, baseOffset, depth+1, visited, lookup)
		} else if lookup != nil {
			baseKind, baseData, err = lookup.Base(ctx, hdr.BaseID)
		} else {
			err = &plumbing.ObjectNotFoundError{ID: hdr.BaseID}
		}
		if err != nil {
			return 0, nil, err
		}
		script, err := p.inflateAt(payloadOffset, hdr.Size)
		if err != nil {
			return 0, nil, err
		}
		target, err := ApplyDelta(baseData, script)
		if err != nil {
			return 0, nil, annotatePackError(err, p.packPath, offset)
		}
		return baseKind, target, nil
	}

	return 0, nil, &plumbing.CorruptPackError{Path: p.packPath, Offset: offset, Reason: "unreachable entry kind"}
}

func annotatePackError(err error, path string, offset int64) error {
	if cpe, ok := err.(*plumbing.CorruptPackError); ok && cpe.Path == "" {
		cpe.Path = path
		cpe.Offset = offset
		return cpe
	}
	return err
}

func (p *Packfile) inflateAt(offset int64, size int64) ([]byte, error) {
	handle, err := p.handles.Open(p.packPath)
	if err != nil {
		return nil, plumbing.NewIoError(p.packPath, err)
	}
	defer p.handles.Release(p.packPath, handle)

	stream, err := zstream.OpenDeflate(handle, offset, size)
	if err != nil {
		return nil, &plumbing.CorruptPackError{Path: p.packPath, Offset: offset, Reason: fmt.Sprintf("open zlib stream: %v", err)}
	}
	defer stream.Close()

	data := make([]byte, size)
	if _, err := io.ReadFull(stream, data); err != nil {
		return nil, &plumbing.CorruptPackError{Path: p.packPath, Offset: offset, Reason: fmt.Sprintf("inflate: %v", err)}
	}
	return data, nil
}

// Stream resolves id like Get but wraps the result as a ReadCloser, for
// callers that want the uniform streaming interface spec §4.3.4 describes
// for blobs. The bytes are still fully resolved in memory first: copy
// instructions in a delta script need random access into the base, so a
// zero-copy streaming decode would only help the non-delta leaf case — a
// micro-optimization this implementation forgoes in favor of one resolution
// path for every entry kind.
func (p *Packfile) Stream(ctx context.Context, id plumbing.Hash, lookup BaseLookup) (Kind, io.ReadCloser, int64, error) {
	kind, data, err := p.Get(ctx, id, lookup)
	if err != nil {
		return 0, nil, 0, err
	}
	return kind, io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}
