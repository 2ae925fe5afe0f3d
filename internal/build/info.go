package build

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// These variables are set at build time via -ldflags.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// String returns a single human-readable build info string.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, CommitSHA, BuildDate)
}

// SemVer parses Version. Development builds return an error.
func SemVer() (*semver.Version, error) {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", Version, err)
	}
	return v, nil
}

// IsRelease reports whether Version is a valid semantic version without a
// prerelease suffix.
func IsRelease() bool {
	v, err := SemVer()
	return err == nil && v.Prerelease() == ""
}
