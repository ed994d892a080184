package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/data")
	assert.Equal(t, "/data", p.Root)
	assert.Equal(t, filepath.Join("/data", "gourmand.db"), p.DB)
	assert.Equal(t, filepath.Join("/data", "history"), p.HistoryFile)
	assert.Equal(t, filepath.Join("/data", "run"), p.RunDir)
	assert.Equal(t, filepath.Join("/data", "run", "http.addr"), p.AddrFile)
}

func TestResolvePaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := ResolvePaths("~/.gourmand")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".gourmand"), p.Root)

	p, err = ResolvePaths("relative/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p.Root))
}

func TestEnsureDirs(t *testing.T) {
	p := NewPaths(filepath.Join(t.TempDir(), "data"))

	// First call creates directories.
	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Root, p.RunDir} {
		info, err := os.Stat(d)
		require.NoError(t, err, "dir %s should exist", d)
		assert.True(t, info.IsDir())
	}

	// Second call is idempotent.
	require.NoError(t, p.EnsureDirs())
}

func TestCleanEphemeral(t *testing.T) {
	p := NewPaths(t.TempDir())
	require.NoError(t, p.EnsureDirs())
	require.NoError(t, os.WriteFile(p.AddrFile, []byte("127.0.0.1:9000"), 0o644))

	p.CleanEphemeral()
	_, err := os.Stat(p.AddrFile)
	assert.True(t, os.IsNotExist(err))

	// missing file is fine
	p.CleanEphemeral()
}
