package ignore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternFilterNegation(t *testing.T) {
	f := NewPatternFilter([]string{"*.log", "!important.log"})
	pl := NewPipeline(f)

	assert.Equal(t, Exclude, pl.Decide("debug.log", false))
	assert.Equal(t, NotExclude, pl.Decide("important.log", false))
	assert.Equal(t, NotExclude, pl.Decide("README.md", false))
}

func TestPipelineLaterFilterWins(t *testing.T) {
	base := NewPatternFilter([]string{"build/"})
	override := NewPatternFilter([]string{"!build/keep.txt"})
	pl := NewPipeline(base, override)

	assert.Equal(t, Exclude, pl.Decide("build", true))
	assert.Equal(t, Exclude, pl.Decide("build/output.o", false))
	assert.Equal(t, NotExclude, pl.Decide("build/keep.txt", false))
}

func TestPipelineNoOpinionLeavesPriorDecision(t *testing.T) {
	base := NewPatternFilter([]string{"*.tmp"})
	unrelated := NewPatternFilter([]string{"*.bak"})
	pl := NewPipeline(base, unrelated)

	assert.Equal(t, Exclude, pl.Decide("scratch.tmp", false))
}

func TestCommonFilterCoversTypicalBuildOutput(t *testing.T) {
	pl := NewPipeline(CommonFilter())
	assert.Equal(t, Exclude, pl.Decide("node_modules", true))
	assert.Equal(t, Exclude, pl.Decide("node_modules/left-pad/index.js", false))
	assert.Equal(t, Exclude, pl.Decide("app.log", false))
	assert.Equal(t, NotExclude, pl.Decide("main.go", false))
}

func TestPatternAnchoredVsUnanchored(t *testing.T) {
	anchored := Compile("/root.txt")
	assert.True(t, anchored.Match("root.txt", false))
	assert.False(t, anchored.Match("sub/root.txt", false))

	unanchored := Compile("leaf.txt")
	assert.True(t, unanchored.Match("leaf.txt", false))
	assert.True(t, unanchored.Match("sub/leaf.txt", false))
}

func TestPatternDoubleStarMatchesAcrossSlashes(t *testing.T) {
	p := Compile("**/vendor/**")
	assert.True(t, p.Match("a/b/vendor/c/d.go", false))
}

func TestPatternDirOnly(t *testing.T) {
	p := Compile("build/")
	assert.True(t, p.Match("build", true))
	assert.False(t, p.Match("build", false))
}
