package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/debug"
	"relay/internal/message"
	"relay/internal/messaging"
	"relay/internal/sink"
)

const sampleToml = `
strict = true

[debug]
patterns = "*,not Folder"
ignore = ["example.com/vendor/"]

[log]
destination = "relay.ndjson"
format = "ndjson"
color = "off"
ring_size = 128
show_stacks = true

[alarm]
rate = 50.0
window = "30s"
cool_down = "2m"
threshold = "failed"
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), sampleToml)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"example.com/vendor/"}, cfg.Debug.Ignore)

	sc, err := cfg.SinkConfig()
	require.NoError(t, err)
	assert.Equal(t, sink.FormatNDJSON, sc.Format)
	assert.Equal(t, sink.ColorOff, sc.Color)
	assert.Equal(t, 128, sc.RingSize)
	assert.True(t, sc.ShowStacks)

	ac, err := cfg.AlarmConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ac.Window)
	assert.Equal(t, 2*time.Minute, ac.CoolDown)
	assert.Equal(t, message.StatusFailed, ac.Threshold)
	assert.Equal(t, "50/min", ac.TriggerRate.String())
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[debug]\npatterns = \"Folder\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Log.Destination)
	assert.Equal(t, 5*time.Minute, cfg.Alarm.CoolDown.Duration)
	assert.False(t, cfg.Strict)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "strict = ", "failed to parse TOML"},
		{"unknown key", "[log]\nlevel = \"debug\"\n", "unknown keys: log.level"},
		{"bad pattern", "[debug]\npatterns = \"extends not !\"\n", "debug.patterns"},
		{"bad format", "[log]\nformat = \"xml\"\n", "log.format"},
		{"bad color", "[log]\ncolor = \"pink\"\n", "log.color"},
		{"negative ring", "[log]\nring_size = -1\n", "log.ring_size"},
		{"bad duration", "[alarm]\ncool_down = \"soon\"\n", "failed to parse TOML"},
		{"bad threshold", "[alarm]\nthreshold = \"meh\"\n", "alarm.threshold"},
		{"negative rate", "[alarm]\nrate = -3.0\n", "alarm.rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "")
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, ok, err := Find(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestDiscoverWithoutFile(t *testing.T) {
	t.Setenv(debug.EnvVar, "")
	t.Setenv(sink.EnvVar, "")
	t.Setenv(EnvStrict, "")

	cfg, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		debug.EnvVar: "Folder",
		sink.EnvVar:  "ring",
		EnvStrict:    "1",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, "Folder", cfg.Debug.Patterns)
	assert.Equal(t, "ring", cfg.Log.Destination)
	assert.True(t, cfg.Strict)

	env[EnvStrict] = "sometimes"
	assert.ErrorContains(t, Default().ApplyEnv(func(k string) string { return env[k] }), EnvStrict)

	env[EnvStrict] = ""
	env[debug.EnvVar] = "File,!"
	assert.Error(t, Default().ApplyEnv(func(k string) string { return env[k] }))
}

type Folder struct{}

func TestApply(t *testing.T) {
	prevReg := debug.Default()
	prevStrict := messaging.IsStrict()
	t.Cleanup(func() {
		debug.SetDefault(prevReg)
		messaging.SetStrict(prevStrict)
	})

	cfg := Default()
	cfg.Strict = true
	cfg.Debug.Patterns = "Folder"
	require.NoError(t, cfg.Apply())

	assert.True(t, messaging.IsStrict())
	assert.True(t, debug.Default().Patterns().EnabledFor(reflect.TypeOf(Folder{})))
}
