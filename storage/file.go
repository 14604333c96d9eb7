package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/simple-artefact-registry/interfaces"
)

// FileBackend implements an artefact store on the local file system.
// Artefact paths are appended to the base directory.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a new file storage backend rooted at baseDir,
// creating the directory if it does not exist.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: empty base directory", interfaces.ErrInvalidLocationURI)
	}

	// Ensure base directory exists
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Open returns the artefact file and its size.
// Returns ErrArtefactNotFound if the file doesn't exist.
func (b *FileBackend) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	filePath := b.getFilePath(path)

	f, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, interfaces.ErrArtefactNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, interfaces.ErrArtefactNotFound
	}

	b.log.Debug("Opened artefact file",
		slog.String("path", filePath),
		slog.Int64("size", info.Size()))

	return f, info.Size(), nil
}

// Write replaces the artefact file with data. Missing parent directories are
// created. The data is written to a temporary file next to the target which is
// then renamed over it, so readers see either the old or the new content.
func (b *FileBackend) Write(ctx context.Context, path string, data []byte) error {
	filePath := b.getFilePath(path)
	dir := filepath.Dir(filePath)

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace file: %w", err)
	}

	b.log.Debug("Stored artefact file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return nil
}

// Available checks if the file backend is accessible by verifying the base directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this storage backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

// getFilePath appends the slash separated artefact path to the base directory.
// filepath.Join cleans the result, which equals plain concatenation for every
// path the route builder accepts (no empty, "." or ".." segments).
func (b *FileBackend) getFilePath(path string) string {
	return filepath.Join(b.baseDir, filepath.FromSlash(path))
}
