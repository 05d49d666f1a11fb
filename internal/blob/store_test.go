package blob_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/blob"
)

func TestFileStore_Put(t *testing.T) {
	dir := t.TempDir()
	store, err := blob.NewFileStore(dir, "https://files.example.com/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "projects/p1/a1/scope.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	require.Equal(t, "https://files.example.com/projects/p1/a1/scope.pdf", url)

	data, err := os.ReadFile(filepath.Join(dir, "projects", "p1", "a1", "scope.pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(data))
}

func TestFileStore_FileURL(t *testing.T) {
	store, err := blob.NewFileStore(t.TempDir(), "")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "a.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	require.Contains(t, url, "file://")
}

func TestCleanKey(t *testing.T) {
	clean, err := blob.CleanKey("/projects//p1/./doc.pdf")
	require.NoError(t, err)
	require.Equal(t, "projects/p1/doc.pdf", clean)

	for _, key := range []string{"", "  ", "../etc/passwd", "a/../../b", "/"} {
		_, err := blob.CleanKey(key)
		require.ErrorIs(t, err, blob.ErrInvalidKey, key)
	}
}
