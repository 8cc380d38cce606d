// Package version records the build fingerprints stamped into the lattice
// binary. A development build carries the defaults below; release builds
// override them through -ldflags, e.g.
//
//	-ldflags "-X lattice/internal/version.Version=0.2.0"
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of this build.
	Version = "0.1.0-dev"

	// Commit is the git revision the binary was built from, when known.
	Commit = ""

	// Date is the build timestamp in ISO-8601, when known.
	Date = ""
)

var segmentColors = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Pretty renders Version with each semver segment colored, keeping any
// prerelease suffix plain. With color globally disabled it degrades to the
// raw string.
func Pretty() string {
	base, suffix, hasSuffix := strings.Cut(Version, "-")
	parts := strings.SplitN(base, ".", 3)
	for i := range parts {
		if i < len(segmentColors) {
			parts[i] = segmentColors[i].Sprint(parts[i])
		}
	}
	out := strings.Join(parts, ".")
	if hasSuffix {
		out += "-" + suffix
	}
	return out
}
