package plumbing

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

const signatureTimeZoneLength = 5

// Signature is the `Name <email> <unix-seconds> <±HHMM>` triple that
// annotates commits and annotated tags.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// String formats s in Git's on-disk form, e.g.
// "Taylor Blau <ttaylorr@github.com> 1494258422 -0600".
func (s *Signature) String() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), s.When.Format("-0700"))
}

// Decode parses b (without any leading header keyword such as "author ")
// into s. Malformed input leaves the unparsed fields at their zero value
// rather than failing — the spec tolerates anomalous signatures as long as
// the surrounding header block still parses.
func (s *Signature) Decode(b []byte) {
	open := bytes.LastIndexByte(b, '<')
	closeB := bytes.LastIndexByte(b, '>')
	if open == -1 || closeB == -1 || closeB < open {
		s.Name = string(bytes.TrimSpace(b))
		return
	}
	s.Name = string(bytes.TrimSpace(b[:open]))
	s.Email = string(b[open+1 : closeB])

	rest := closeB + 2
	if rest >= len(b) {
		return
	}
	s.decodeWhen(b[rest:])
}

func (s *Signature) decodeWhen(b []byte) {
	space := bytes.IndexByte(b, ' ')
	if space == -1 {
		space = len(b)
	}
	secs, err := strconv.ParseInt(string(b[:space]), 10, 64)
	if err != nil {
		return
	}
	s.When = time.Unix(secs, 0).UTC()

	tzStart := space + 1
	if tzStart >= len(b) || tzStart+signatureTimeZoneLength > len(b) {
		return
	}
	tz := string(b[tzStart : tzStart+signatureTimeZoneLength])
	hours, err1 := strconv.ParseInt(tz[0:3], 10, 64)
	mins, err2 := strconv.ParseInt(tz[3:], 10, 64)
	if err1 != nil || err2 != nil {
		return
	}
	if hours < 0 {
		mins *= -1
	}
	loc := time.FixedZone("", int(hours*3600+mins*60))
	s.When = s.When.In(loc)
}
