package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReqSatisfies(t *testing.T) {
	r, err := ParseReq("^1.0.0")
	require.NoError(t, err)

	assert.True(t, r.Satisfies(MustParse("1.0.0")))
	assert.True(t, r.Satisfies(MustParse("1.9.9")))
	assert.False(t, r.Satisfies(MustParse("2.0.0")))
	assert.False(t, r.Satisfies(MustParse("0.9.0")))
}

func TestReqSatisfiesBelowRequirement(t *testing.T) {
	r := MustParseReq("^2.0.0")
	assert.False(t, r.Satisfies(MustParse("1.9.9")))
}

func TestReqIntersection(t *testing.T) {
	r := MustParseReq(">=1.0.0,<2.0.0")
	assert.True(t, r.Satisfies(MustParse("1.5.0")))
	assert.False(t, r.Satisfies(MustParse("2.0.0")))
}

func TestDetectOperator(t *testing.T) {
	assert.Equal(t, OperatorCaret, DetectOperator("^1.2.3"))
	assert.Equal(t, OperatorTilde, DetectOperator("~1.2.3"))
	assert.Equal(t, OperatorExact, DetectOperator("1.2.3"))
	assert.Equal(t, OperatorRange, DetectOperator(">=1.0.0,<2.0.0"))
	assert.Equal(t, OperatorRange, DetectOperator("*"))
}

func TestRewriteReq(t *testing.T) {
	newVersion := MustParse("2.0.0")

	got, rewritten := RewriteReq("^1.2.3", newVersion)
	assert.True(t, rewritten)
	assert.Equal(t, "^2.0.0", got)

	got, rewritten = RewriteReq("~1.2.3", newVersion)
	assert.True(t, rewritten)
	assert.Equal(t, "~2.0.0", got)

	got, rewritten = RewriteReq("1.2.3", newVersion)
	assert.True(t, rewritten)
	assert.Equal(t, "2.0.0", got)

	got, rewritten = RewriteReq(">=1.0.0,<2.0.0", newVersion)
	assert.False(t, rewritten)
	assert.Equal(t, ">=1.0.0,<2.0.0", got)
}
