package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")

	t.Run("creates", func(t *testing.T) {
		require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "first", string(got))
	})
	t.Run("replaces", func(t *testing.T) {
		require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o644))
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})
	t.Run("leaves no temp files", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
	t.Run("missing directory", func(t *testing.T) {
		err := WriteFileAtomic(filepath.Join(dir, "nope", "out.png"), []byte("x"), 0o644)
		assert.Error(t, err)
	})
}

func TestSafeBaseName(t *testing.T) {
	tests := map[string]string{
		"a.txt":            "a.txt",
		"../../etc/passwd": "passwd",
		"/abs/path/x.bin":  "x.bin",
		"dir/":             "dir",
		"..":               "",
		"":                 "",
		"/":                "",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, SafeBaseName(input), input)
	}
}
