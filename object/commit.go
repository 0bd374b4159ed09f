package object

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/coldforge/gitcore/plumbing"
)

// CommitRecord is the parsed form of a commit object.
type CommitRecord struct {
	ID        plumbing.Hash
	TreeID    plumbing.Hash
	ParentIDs []plumbing.Hash
	Author    plumbing.Signature
	Committer plumbing.Signature
	Message   string
}

// Subject returns the first blank-line-delimited paragraph of Message, with
// internal newlines collapsed to spaces.
func (c *CommitRecord) Subject() string {
	para := c.Message
	if idx := strings.Index(c.Message, "\n\n"); idx >= 0 {
		para = c.Message[:idx]
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(para, "\n", " ")), " ")
}

// Body returns the remainder of Message after the subject paragraph.
func (c *CommitRecord) Body() string {
	if idx := strings.Index(c.Message, "\n\n"); idx >= 0 {
		return strings.TrimPrefix(c.Message[idx+2:], "\n")
	}
	return ""
}

// ParseCommit decodes a commit object's body (the bytes following the
// "commit <size>\0" framing) into a CommitRecord. Per spec §4.6: header
// lines until the first blank line, unknown headers tolerated and skipped,
// continuation lines indented by a single space appended to the previous
// header's value.
func ParseCommit(id plumbing.Hash, r io.Reader) (*CommitRecord, error) {
	c := &CommitRecord{ID: id}
	br := bufio.NewReader(r)

	var message strings.Builder
	finishedHeaders := false
	haveTree := false

	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("read commit line: %w", readErr)
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
			if strings.HasPrefix(text, " ") {
				// Continuation of an unknown header's value: tolerated,
				// not retained (spec §4.6).
			} else {
				key, value, ok := strings.Cut(text, " ")
				if !ok {
					return nil, &plumbing.MalformedObjectError{ID: id, Reason: "header line without a value: " + text}
				}
				switch key {
				case "tree":
					c.TreeID = plumbing.NewHash(value)
					haveTree = true
				case "parent":
					c.ParentIDs = append(c.ParentIDs, plumbing.NewHash(value))
				case "author":
					c.Author.Decode([]byte(value))
				case "committer":
					c.Committer.Decode([]byte(value))
				default:
					// Unknown header (encoding, gpgsig, mergetag, ...):
					// tolerated, not retained.
				}
			}
		} else {
			message.WriteString(line)
		}

		if readErr == io.EOF {
			break
		}
	}

	if !haveTree {
		return nil, &plumbing.MalformedObjectError{ID: id, Reason: "missing tree header"}
	}
	c.Message = message.String()
	return c, nil
}
