package plumbing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReferenceFromStrings(t *testing.T) {
	direct := NewReferenceFromStrings("refs/heads/main", "da39a3ee5e6b4b0d3255bfef95601890afd80709")
	assert.Equal(t, HashReference, direct.Type())
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", direct.Hash().String())

	sym := NewReferenceFromStrings("HEAD", "ref: refs/heads/main")
	assert.Equal(t, SymbolicReference, sym.Type())
	assert.Equal(t, ReferenceName("refs/heads/main"), sym.Target())
}

func TestReferenceNameClassification(t *testing.T) {
	assert.True(t, ReferenceName("refs/heads/main").IsBranch())
	assert.True(t, ReferenceName("refs/tags/v1.0.0").IsTag())
	assert.True(t, ReferenceName("refs/remotes/origin/main").IsRemote())
	assert.Equal(t, "main", ReferenceName("refs/heads/main").Short())
	assert.Equal(t, "v1.0.0", ReferenceName("refs/tags/v1.0.0").Short())
}

func TestValidateReferenceName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"simple branch", "refs/heads/main", true},
		{"empty component", "refs/heads//main", false},
		{"lock suffix", "refs/heads/main.lock", false},
		{"space", "refs/heads/my branch", false},
		{"empty", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ValidateReferenceName([]byte(c.in)))
		})
	}
}
