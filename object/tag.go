package object

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/coldforge/gitcore/plumbing"
)

// TagRecord is the parsed form of an annotated tag object. Lightweight tags
// never reach this type directly — the reference resolver synthesizes an
// equivalent record with an empty Tagger/Message (see refs package and
// spec §9's resolved Open Question).
type TagRecord struct {
	ID         plumbing.Hash
	ObjectID   plumbing.Hash
	ObjectKind Kind
	Name       string
	Tagger     *plumbing.Signature
	Message    string
}

// ParseTag decodes an annotated tag object's body: a header block
// (object/type/tag/optional tagger) followed by a blank line and the
// message, mirroring commit's header-then-message shape (spec §4.6).
func ParseTag(id plumbing.Hash, r io.Reader) (*TagRecord, error) {
	t := &TagRecord{ID: id}
	br := bufio.NewReader(r)

	var message strings.Builder
	finishedHeaders := false
	haveObject, haveType, haveName := false, false, false

	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("read tag line: %w", readErr)
		}
		text := strings.TrimSuffix(line, "\n")

		if !finishedHeaders {
			if text == "" {
				finishedHeaders = true
				if readErr == io.EOF {
					break
				}
				continue
			}
			key, value, ok := strings.Cut(text, " ")
			if !ok {
				if readErr == io.EOF {
					break
				}
				continue
			}
			switch key {
			case "object":
				t.ObjectID = plumbing.NewHash(value)
				haveObject = true
			case "type":
				t.ObjectKind = KindFromString(value)
				haveType = true
			case "tag":
				t.Name = value
				haveName = true
			case "tagger":
				sig := &plumbing.Signature{}
				sig.Decode([]byte(value))
				t.Tagger = sig
			default:
				// Unknown header: tolerated, not retained.
			}
		} else {
			message.WriteString(line)
		}

		if readErr == io.EOF {
			break
		}
	}

	if !haveObject || !haveType || !haveName {
		return nil, &plumbing.MalformedObjectError{ID: id, Reason: "tag missing required object/type/tag header"}
	}
	t.Message = message.String()
	return t, nil
}
