package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectInputPaths_MergesArgsAndDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.json", "notes.txt", "c.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o700))

	paths, err := collectInputPaths([]string{"explicit.yaml"}, dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"explicit.yaml",
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "c.xlsx"),
	}, paths)
}

func TestCollectInputPaths_NoDir(t *testing.T) {
	paths, err := collectInputPaths([]string{"one.yaml", "two.json"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"one.yaml", "two.json"}, paths)
}

func TestCollectInputPaths_MissingDir(t *testing.T) {
	_, err := collectInputPaths(nil, filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read dir")
}
