package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeBranch(t *testing.T) {
	assert.Equal(t, "feature-PROJ-123-add-auth", SanitizeBranch("feature/PROJ-123-add-auth"))
	assert.Equal(t, "fix-bug-fix-v2", SanitizeBranch("fix/bug_fix_v2"))
	assert.Equal(t, "release-2.0.0-beta", SanitizeBranch("release/2.0.0-beta"))
	assert.Equal(t, "feat-user-domain.com", SanitizeBranch("feat/user@domain.com"))
	assert.Equal(t, "leading-trailing", SanitizeBranch("///leading-trailing///"))
}

func TestSnapshot(t *testing.T) {
	v := MustParse("3.0.0")
	got := Snapshot("{version}-{branch}.{commit}", v, "develop", "xyz789abc", 0)
	assert.Equal(t, "3.0.0-develop.xyz789abc", got)

	got = Snapshot("", v, "feature/oauth", "abc123", 1640000000)
	assert.Equal(t, "3.0.0-feature-oauth.abc123", got)

	got = Snapshot("{version}-snapshot.{timestamp}", v, "main", "abc", 1640000000)
	assert.Equal(t, "3.0.0-snapshot.1640000000", got)
}
