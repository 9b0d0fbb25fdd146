package semver

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultSnapshotPattern is used when no snapshot_pattern configuration is supplied.
const DefaultSnapshotPattern = "{version}-{branch}.{commit}"

var disallowedBranchChar = regexp.MustCompile(`[^A-Za-z0-9.-]+`)

// SanitizeBranch replaces any run of characters outside [A-Za-z0-9.-]
// with a single "-", then trims a leading or trailing "-" left by the
// collapse. Used both for snapshot version strings and changeset file
// names, so the two stay consistent for a given branch.
func SanitizeBranch(branch string) string {
	sanitized := disallowedBranchChar.ReplaceAllString(branch, "-")
	return strings.Trim(sanitized, "-")
}

// Snapshot formats a pre-release snapshot string from pattern,
// substituting {version}, {branch}, {commit}, and {timestamp}.
// branch is sanitized before substitution; ts is an optional unix
// timestamp (0 means the placeholder renders empty).
func Snapshot(pattern string, v Version, branch, commit string, ts int64) string {
	if pattern == "" {
		pattern = DefaultSnapshotPattern
	}
	replacer := strings.NewReplacer(
		"{version}", v.String(),
		"{branch}", SanitizeBranch(branch),
		"{commit}", commit,
		"{timestamp}", timestampString(ts),
	)
	return replacer.Replace(pattern)
}

func timestampString(ts int64) string {
	if ts == 0 {
		return ""
	}
	return strconv.FormatInt(ts, 10)
}
