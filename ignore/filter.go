package ignore

import (
	"bufio"
	"strings"

	"github.com/coldforge/gitcore/filesystem"
)

// Filter is a total function path -> {Exclude, NotExclude}, composable in
// an ordered list where later filters win (spec §4.7.3). decideMatched's
// second return reports whether this filter expressed any opinion at all,
// so Pipeline can skip filters that never matched rather than letting them
// silently reset an earlier Exclude back to NotExclude.
type Filter interface {
	decideMatched(path string, isDir bool) (Decision, bool)
}

// patternFilter adapts a single compiled Pattern list (e.g. one
// .gitignore file's worth of lines) into a Filter: the last matching
// pattern in the file wins, and a match on a "!pattern" line yields
// NotExclude.
type patternFilter struct {
	patterns []*Pattern
}

// NewPatternFilter compiles lines (as read from one ignore file, in order,
// comments and blank lines already stripped) into a Filter.
func NewPatternFilter(lines []string) Filter {
	pf := &patternFilter{}
	for _, line := range lines {
		pf.patterns = append(pf.patterns, Compile(line))
	}
	return pf
}

func (pf *patternFilter) decideMatched(path string, isDir bool) (Decision, bool) {
	decided := false
	result := NotExclude
	for _, p := range pf.patterns {
		if !p.Match(path, isDir) {
			continue
		}
		decided = true
		if p.Negates() {
			result = NotExclude
		} else {
			result = Exclude
		}
	}
	return result, decided
}

// Pipeline is an ordered list of Filters; the later filter's definite
// decision wins over an earlier one, modelling Git's layering of
// info/exclude, parent-directory .gitignore files, and the current
// directory's .gitignore (spec §4.7.3).
type Pipeline struct {
	filters []Filter
}

// NewPipeline builds a Pipeline from filters in increasing priority order
// (the last one wins).
func NewPipeline(filters ...Filter) *Pipeline {
	return &Pipeline{filters: filters}
}

// Append adds f as the new highest-priority filter.
func (pl *Pipeline) Append(f Filter) {
	pl.filters = append(pl.filters, f)
}

// Decide runs path through every filter in order. A filter that expresses
// no opinion (no pattern matched) leaves the running decision untouched;
// one that does match — Exclude or, via negation, NotExclude — overrides
// every earlier decision.
func (pl *Pipeline) Decide(path string, isDir bool) Decision {
	result := NotExclude
	for _, f := range pl.filters {
		if d, matched := f.decideMatched(path, isDir); matched {
			result = d
		}
	}
	return result
}

// commonIgnoreLines is the precompiled "common ignore" set covering typical
// build/vendor output directories (spec §4.7.3 SUPPLEMENT), supplied as a
// built-in pattern list ranked below any repository-local ignore file.
var commonIgnoreLines = []string{
	"bin/",
	"obj/",
	"node_modules/",
	"target/",
	".vs/",
	".idea/",
	"*.log",
	"*.tmp",
	"*.swp",
	".DS_Store",
}

// CommonFilter returns the built-in common-ignore Filter.
func CommonFilter() Filter {
	return NewPatternFilter(commonIgnoreLines)
}

// ReadIgnoreFile reads one ignore-format file (".gitignore" or
// ".git/info/exclude") via fs, returning its non-comment, non-blank lines.
// A missing file is not an error: it yields a nil slice, matching the
// teacher's readIgnoreFile (modules/plumbing/format/ignore/dir.go)
// tolerance of os.IsNotExist.
func ReadIgnoreFile(fs filesystem.FileSystem, path string) ([]string, error) {
	if !fs.Exists(path) {
		return nil, nil
	}
	h, err := fs.OpenRead(path)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	var lines []string
	sc := bufio.NewScanner(h)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}
