// Package ignore implements the gitignore-style pattern compiler and
// ordered filter pipeline the working-directory status engine uses to
// classify untracked paths (spec §4.7.3). Pattern compilation is adapted
// from modules/wildmatch/wildmatch.go (git-lfs derived, MIT); this package
// trades that implementation's general attribute-matching token set for a
// narrower regex-based compiler scoped to exactly the gitignore grammar the
// spec names.
package ignore

import (
	"regexp"
	"strings"
)

// Decision is the outcome a single Pattern or a Filter pipeline reaches for
// one path.
type Decision int

const (
	// NotExclude is both "no opinion" (for a Pattern that did not match)
	// and "keep" (for a negated pattern that did match).
	NotExclude Decision = iota
	Exclude
)

// Pattern is one compiled gitignore line.
type Pattern struct {
	raw       string
	negate    bool
	dirOnly   bool
	anchored  bool
	re        *regexp.Regexp
}

// Compile parses a single non-comment, non-blank gitignore line into a
// Pattern. Panics are never raised: a malformed pattern degenerates to one
// that matches nothing, mirroring Git's tolerance of odd ignore lines.
func Compile(line string) *Pattern {
	p := &Pattern{raw: line}

	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	// A leading "\!" or "\#" escapes what would otherwise be negation or a
	// comment marker; un-escape it now that those checks are past.
	line = strings.TrimPrefix(line, `\`)

	if strings.HasSuffix(line, "/") && !strings.HasSuffix(line, `\/`) {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if strings.Contains(line, "/") {
		// A slash anywhere but the trailing position anchors the pattern
		// to the directory holding the ignore file, per gitignore's rules.
		p.anchored = true
	}

	p.re = regexp.MustCompile("^" + translate(line) + "$")
	return p
}

// translate converts one gitignore glob component sequence into a regular
// expression body (no anchors). "**" is only special as a whole path
// component; elsewhere the two stars degrade to two single-star globs,
// matching Git's own fallback behavior for a malformed "**".
func translate(pattern string) string {
	var out strings.Builder
	comps := strings.Split(pattern, "/")
	for i, comp := range comps {
		if i > 0 {
			out.WriteString("/")
		}
		if comp == "**" {
			out.WriteString(".*")
			continue
		}
		out.WriteString(translateComponent(comp))
	}
	return out.String()
}

func translateComponent(comp string) string {
	var out strings.Builder
	for i := 0; i < len(comp); i++ {
		c := comp[i]
		switch c {
		case '*':
			out.WriteString("[^/]*")
		case '?':
			out.WriteString("[^/]")
		case '\\':
			if i+1 < len(comp) {
				out.WriteString(regexp.QuoteMeta(string(comp[i+1])))
				i++
			}
		default:
			out.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return out.String()
}

// Match reports whether path (slash-separated, relative to the directory
// the pattern was read from, never beginning with "/") matches p. isDir
// tells Match whether path names a directory, for dirOnly patterns and for
// the "match the directory and everything under it" gitignore convention:
// once a directory matches, every path beneath it matches too.
func (p *Pattern) Match(path string, isDir bool) bool {
	if p.matchAt(path, isDir) {
		return true
	}
	// A directory match implies every descendant matches, anchored or not.
	for i := 0; i < len(path); i++ {
		if path[i] == '/' && p.matchAt(path[:i], true) {
			return true
		}
	}
	if p.anchored {
		return false
	}
	// Unanchored: the pattern may also match starting at any component
	// boundary deeper in the path, plus descendants of that match.
	for i := 0; i < len(path); i++ {
		if path[i] != '/' {
			continue
		}
		rest := path[i+1:]
		if p.matchAt(rest, isDir) {
			return true
		}
		for j := 0; j < len(rest); j++ {
			if rest[j] == '/' && p.matchAt(rest[:j], true) {
				return true
			}
		}
	}
	return false
}

func (p *Pattern) matchAt(path string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	return p.re.MatchString(path)
}

// Negates reports whether p is a "!pattern" negation line.
func (p *Pattern) Negates() bool { return p.negate }

// String returns the original source line.
func (p *Pattern) String() string { return p.raw }
