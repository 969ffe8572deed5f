package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the relay CLI.
// These variables can be overridden at build time via -ldflags.

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with major, minor and patch in their own colors.
// Anything after the patch number ("-dev", "+build.1") stays plain.
func Colored() string {
	core, suffix := Version, ""
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core, suffix = core[:i], core[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2]) + suffix
}

// String returns "relay <version>" followed by the commit and build date
// when they are known.
func String() string {
	var b strings.Builder
	b.WriteString("relay ")
	b.WriteString(Colored())
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		b.WriteString(" (")
		b.WriteString(commit)
		if BuildDate != "" {
			b.WriteString(", ")
			b.WriteString(BuildDate)
		}
		b.WriteString(")")
	} else if BuildDate != "" {
		b.WriteString(" (")
		b.WriteString(BuildDate)
		b.WriteString(")")
	}
	return b.String()
}
