package object

import (
	"strings"
	"testing"

	"github.com/coldforge/gitcore/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommit(t *testing.T) {
	body := "" +
		"tree 1205dc34ce48bda28fc543daaf9525a9bb6e6d10\n" +
		"parent aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n" +
		"parent bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n" +
		"author Kouji Matsui <k@kekyo.net> 1600000000 +0900\n" +
		"committer Kouji Matsui <k@kekyo.net> 1600000100 +0900\n" +
		"gpgsig -----BEGIN PGP SIGNATURE-----\n" +
		" iQEcBAABAgAGBQJg\n" +
		" =abcd\n" +
		" -----END PGP SIGNATURE-----\n" +
		"\n" +
		"Merge branch 'devel'\n" +
		"\n" +
		"Longer body line one.\n" +
		"Longer body line two.\n"

	id := plumbing.NewHash("0000000000000000000000000000000000000f")
	c, err := ParseCommit(id, strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, plumbing.NewHash("1205dc34ce48bda28fc543daaf9525a9bb6e6d10"), c.TreeID)
	require.Len(t, c.ParentIDs, 2)
	assert.Equal(t, plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), c.ParentIDs[0])
	assert.Equal(t, "Kouji Matsui", c.Author.Name)
	assert.Equal(t, "k@kekyo.net", c.Committer.Email)
	assert.Equal(t, "Merge branch 'devel'", c.Subject())
	assert.Equal(t, "Longer body line one.\nLonger body line two.\n", c.Body())
}

func TestParseCommitMissingTreeIsMalformed(t *testing.T) {
	body := "author a <a@b.c> 1 +0000\ncommitter a <a@b.c> 1 +0000\n\nmsg\n"
	id := plumbing.NewHash("0000000000000000000000000000000000000f")
	_, err := ParseCommit(id, strings.NewReader(body))
	require.Error(t, err)
	var malformed *plumbing.MalformedObjectError
	assert.ErrorAs(t, err, &malformed)
}

func TestParseCommitNoMessageBody(t *testing.T) {
	body := "tree 1205dc34ce48bda28fc543daaf9525a9bb6e6d10\n" +
		"author a <a@b.c> 1 +0000\n" +
		"committer a <a@b.c> 1 +0000\n" +
		"\n" +
		"Subject only, no body\n"
	id := plumbing.NewHash("0000000000000000000000000000000000000f")
	c, err := ParseCommit(id, strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "Subject only, no body", c.Subject())
	assert.Equal(t, "", c.Body())
	assert.Empty(t, c.ParentIDs)
}
