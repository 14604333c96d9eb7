package storage

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/simple-artefact-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileBackend(t *testing.T) (*FileBackend, string) {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "file-storage-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend, err := NewFileBackend(tempDir, logger)
	require.NoError(t, err)
	return backend, tempDir
}

func readAll(t *testing.T, backend interfaces.ArtefactStore, path string) ([]byte, int64) {
	t.Helper()
	rc, size, err := backend.Open(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data, size
}

func TestFileBackend_WriteAndOpen(t *testing.T) {
	backend, tempDir := newTestFileBackend(t)
	ctx := context.Background()

	data := bytes.Repeat([]byte("0123456789"), 500)
	require.NoError(t, backend.Write(ctx, "/dir/nested/file.bin", data))

	onDisk, err := os.ReadFile(filepath.Join(tempDir, "dir", "nested", "file.bin"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	got, size := readAll(t, backend, "/dir/nested/file.bin")
	assert.Equal(t, data, got)
	assert.Equal(t, int64(len(data)), size)
}

func TestFileBackend_Overwrite(t *testing.T) {
	backend, tempDir := newTestFileBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Write(ctx, "/a.txt", []byte("a much longer first version")))
	require.NoError(t, backend.Write(ctx, "/a.txt", []byte("short")))

	got, _ := readAll(t, backend, "/a.txt")
	assert.Equal(t, []byte("short"), got)

	// No temporary files are left behind
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())

	info, err := os.Stat(filepath.Join(tempDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestFileBackend_EmptyArtefact(t *testing.T) {
	backend, _ := newTestFileBackend(t)

	require.NoError(t, backend.Write(context.Background(), "/empty", nil))
	got, size := readAll(t, backend, "/empty")
	assert.Empty(t, got)
	assert.Equal(t, int64(0), size)
}

func TestFileBackend_NotFound(t *testing.T) {
	backend, tempDir := newTestFileBackend(t)
	ctx := context.Background()

	_, _, err := backend.Open(ctx, "/missing")
	assert.ErrorIs(t, err, interfaces.ErrArtefactNotFound)

	_, _, err = backend.Open(ctx, "/missing/dir/file")
	assert.ErrorIs(t, err, interfaces.ErrArtefactNotFound)

	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "adir"), 0755))
	_, _, err = backend.Open(ctx, "/adir")
	assert.ErrorIs(t, err, interfaces.ErrArtefactNotFound)
}

func TestFileBackend_Metadata(t *testing.T) {
	backend, tempDir := newTestFileBackend(t)

	assert.True(t, backend.Available(context.Background()))
	assert.Equal(t, "file://"+tempDir, backend.LocationURI())
	assert.Equal(t, "file-"+filepath.Base(tempDir), backend.Name())

	require.NoError(t, os.RemoveAll(tempDir))
	assert.False(t, backend.Available(context.Background()))
}

func TestFileBackend_FilePathIsConcatenation(t *testing.T) {
	backend, tempDir := newTestFileBackend(t)

	for _, path := range []string{"/a.bin", "/dir/nested/file.tar.gz", "/with space/x"} {
		assert.Equal(t, filepath.FromSlash(tempDir+path), backend.getFilePath(path))
	}
}
