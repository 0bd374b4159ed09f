package gitcore

import (
	"github.com/coldforge/gitcore/filesystem"
	"github.com/coldforge/gitcore/handlecache"
	"github.com/coldforge/gitcore/pack"
	"github.com/coldforge/gitcore/refs"
	"github.com/sirupsen/logrus"
)

// Options configures a Repository at open time (spec §6 External
// interfaces). Grounded on the teacher's Option func(*Database) pattern in
// modules/zeta/backend/odb.go.
type Options struct {
	FileSystem          filesystem.FileSystem
	HandleCacheCapacity int
	MaxDeltaDepth       int
	SymbolicRefMaxHops  int
	Logger              *logrus.Logger
}

// Option mutates an in-progress Options during Open.
type Option func(*Options)

// WithFileSystem overrides the default OS-backed filesystem.FileSystem,
// the seam spec §9's design notes call for so tests can substitute a
// synthetic tree.
func WithFileSystem(fs filesystem.FileSystem) Option {
	return func(o *Options) { o.FileSystem = fs }
}

// WithHandleCacheCapacity overrides handlecache.DefaultCapacity().
func WithHandleCacheCapacity(n int) Option {
	return func(o *Options) { o.HandleCacheCapacity = n }
}

// WithMaxDeltaDepth overrides pack.DefaultMaxDeltaDepth.
func WithMaxDeltaDepth(n int) Option {
	return func(o *Options) { o.MaxDeltaDepth = n }
}

// WithSymbolicRefMaxHops overrides refs.DefaultMaxSymbolicHops.
func WithSymbolicRefMaxHops(n int) Option {
	return func(o *Options) { o.SymbolicRefMaxHops = n }
}

// WithLogger sets the logger Repository uses for its own diagnostic
// messages (repository open and close). Defaults to a logger with
// output discarded, matching the teacher's convention of never logging by
// default in library code.
func WithLogger(l *logrus.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func defaultOptions() Options {
	discard := logrus.New()
	discard.SetOutput(discardWriter{})
	return Options{
		FileSystem:          filesystem.NewOS(),
		HandleCacheCapacity: handlecache.DefaultCapacity(),
		MaxDeltaDepth:       pack.DefaultMaxDeltaDepth,
		SymbolicRefMaxHops:  refs.DefaultMaxSymbolicHops,
		Logger:              discard,
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
