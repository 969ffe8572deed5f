package version

import (
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func withoutColor(t *testing.T) {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })
}

func TestVersion_DefaultValue(t *testing.T) {
	assert.NotEmpty(t, Version)
}

func TestString(t *testing.T) {
	withoutColor(t)

	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"0.1.0-dev", "", "", "relay 0.1.0-dev"},
		{"1.2.3", "1234567890abcdef1234", "", "relay 1.2.3 (1234567890ab)"},
		{"1.2.3", "abc123", "2024-01-15T10:30:00Z", "relay 1.2.3 (abc123, 2024-01-15T10:30:00Z)"},
		{"1.2.3-rc.1+build.123", "", "2024-01-15", "relay 1.2.3-rc.1+build.123 (2024-01-15)"},
	}
	for _, tt := range tests {
		withVersion(t, tt.version, tt.commit, tt.date)
		assert.Equal(t, tt.want, String())
	}
}

func TestColored(t *testing.T) {
	withVersion(t, "2.0.0-alpha", "", "")

	withoutColor(t)
	assert.Equal(t, "2.0.0-alpha", Colored())

	if os.Getenv("NO_COLOR") != "" {
		t.Skip("NO_COLOR disables colors per color instance")
	}
	color.NoColor = false
	got := Colored()
	assert.Contains(t, got, "\x1b[")
	assert.Contains(t, got, "-alpha")

	Version = "nightly"
	assert.Equal(t, "nightly", Colored())
}

func BenchmarkString(b *testing.B) {
	for b.Loop() {
		_ = String()
	}
}
