package refs

import (
	"bufio"
	"strings"

	"github.com/coldforge/gitcore/plumbing"
)

// ReflogEntry is one line of a reference's reflog: the value transition plus
// the committer and message that produced it (spec §3 Reflog entry).
// Grounded on the teacher's modules/zeta/reflog/reflog.go newEntry parser.
type ReflogEntry struct {
	Old       plumbing.Hash
	New       plumbing.Hash
	Committer plumbing.Signature
	Message   string
}

const stashRefName plumbing.ReferenceName = "refs/stash"

// Reflog reads "<gitDir>/logs/<name>" in on-disk (oldest-first) order. A
// missing reflog file yields an empty slice, not an error — most refs have
// none.
func (r *Resolver) Reflog(name plumbing.ReferenceName) ([]ReflogEntry, error) {
	p := r.fs.Join(r.gitDir, "logs", string(name))
	if !r.fs.Exists(p) {
		return nil, nil
	}
	h, err := r.fs.OpenRead(p)
	if err != nil {
		return nil, plumbing.NewIoError(p, err)
	}
	defer h.Close()

	var entries []ReflogEntry
	sc := bufio.NewScanner(h)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, ok := parseReflogLine(line)
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, plumbing.NewIoError(p, err)
	}
	return entries, nil
}

// Stash returns the reflog of refs/stash: Git's stash list is nothing more
// than that reference's reflog, newest entry first.
func (r *Resolver) Stash() ([]ReflogEntry, error) {
	entries, err := r.Reflog(stashRefName)
	if err != nil {
		return nil, err
	}
	reversed := make([]ReflogEntry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	return reversed, nil
}

// parseReflogLine decodes "<old-hex> <new-hex> <committer> TAB <message>".
// The message (and its preceding tab) is optional.
func parseReflogLine(line string) (ReflogEntry, bool) {
	oldHex, rest, ok := strings.Cut(line, " ")
	if !ok {
		return ReflogEntry{}, false
	}
	newHex, rest, ok := strings.Cut(rest, " ")
	if !ok {
		return ReflogEntry{}, false
	}

	signature := rest
	message := ""
	if tab := strings.IndexByte(rest, '\t'); tab != -1 {
		signature = rest[:tab]
		message = rest[tab+1:]
	}

	e := ReflogEntry{
		Old: plumbing.NewHash(oldHex),
		New: plumbing.NewHash(newHex),
	}
	e.Committer.Decode([]byte(signature))
	e.Message = message
	return e, true
}
