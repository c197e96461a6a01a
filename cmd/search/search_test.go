package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSniffExtensionSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run1.mzML")
	require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0o644))

	ext, err := sniffExtension(path)
	require.NoError(t, err)
	require.Equal(t, ".mzml", ext)
}

func TestSniffExtensionDirectoryFindsFirstRecognized(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run1.mgf"), []byte("x"), 0o644))

	ext, err := sniffExtension(dir)
	require.NoError(t, err)
	require.Equal(t, ".mgf", ext)
}

func TestSniffExtensionDirectoryWithNoRecognizedFilesErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))

	_, err := sniffExtension(dir)
	require.Error(t, err)
}

func TestSniffExtensionMissingPathErrors(t *testing.T) {
	_, err := sniffExtension(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}
