package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.yaml", "a.hcl", "sub/c.yml", "notes.txt"} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	explicit := filepath.Join(root, "notes.txt")

	files, err := FindFiles([]string{root, explicit, root}, ".yaml", ".yml", ".hcl")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "b.yaml"),
		filepath.Join(root, "sub/c.yml"),
		explicit,
	}, files)
}

func TestFindFiles_MissingPath(t *testing.T) {
	_, err := FindFiles([]string{filepath.Join(t.TempDir(), "nope")}, ".hcl")
	require.ErrorIs(t, err, os.ErrNotExist)
}
