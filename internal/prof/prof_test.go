package prof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Mem:   filepath.Join(dir, "mem.pprof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	s, err := Start(opts)
	require.NoError(t, err)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	for _, path := range []string{opts.CPU, opts.Mem, opts.Trace} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size(), path)
	}
}

func TestSessionNothingEnabled(t *testing.T) {
	s, err := Start(Options{})
	require.NoError(t, err)
	assert.NoError(t, s.Stop())

	var nilSession *Session
	assert.NoError(t, nilSession.Stop())
}

func TestStartFailsCleanly(t *testing.T) {
	dir := t.TempDir()
	_, err := Start(Options{
		CPU:   filepath.Join(dir, "cpu.pprof"),
		Trace: filepath.Join(dir, "missing", "trace.out"),
	})
	assert.ErrorContains(t, err, "failed to start trace")

	// the CPU profiler was stopped, so a new one can start
	s, err := Start(Options{CPU: filepath.Join(dir, "again.pprof")})
	require.NoError(t, err)
	assert.NoError(t, s.Stop())
}
