package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/simple-artefact-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageBackendFactory_BackendFor(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "factory-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := NewStorageBackendFactory(logger)

	tests := []struct {
		name     string
		location string
		wantType interface{}
		wantURI  string
		wantErr  error
	}{
		{
			name:     "plain path",
			location: filepath.Join(tempDir, "plain"),
			wantType: &FileBackend{},
			wantURI:  "file://" + filepath.Join(tempDir, "plain"),
		},
		{
			name:     "file uri",
			location: "file://" + filepath.Join(tempDir, "uri"),
			wantType: &FileBackend{},
			wantURI:  "file://" + filepath.Join(tempDir, "uri"),
		},
		{
			name:     "s3 with prefix and endpoint",
			location: "s3://artefacts/sar/?region=eu-west-1&endpoint=http://localhost:9000",
			wantType: &S3Backend{},
			wantURI:  "s3://artefacts/sar?region=eu-west-1&endpoint=http://localhost:9000",
		},
		{
			name:     "s3 with credentials",
			location: "s3://AKID:SECRET@artefacts",
			wantType: &S3Backend{},
			wantURI:  "s3://AKID:***@artefacts/?region=us-east-1",
		},
		{
			name:     "unsupported scheme",
			location: "ipfs://localhost:5001/",
			wantErr:  interfaces.ErrInvalidLocationURI,
		},
		{
			name:     "s3 without bucket",
			location: "s3:///prefix",
			wantErr:  interfaces.ErrInvalidLocationURI,
		},
		{
			name:     "empty",
			location: "",
			wantErr:  interfaces.ErrInvalidLocationURI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := factory.BackendFor(tt.location)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, backend)
			assert.Equal(t, tt.wantURI, backend.LocationURI())
		})
	}
}

func TestStorageBackendFactory_SharesBackends(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "factory-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	factory := NewStorageBackendFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))

	first, err := factory.BackendFor(tempDir)
	require.NoError(t, err)
	second, err := factory.BackendFor(tempDir)
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := factory.BackendFor(filepath.Join(tempDir, "other"))
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestS3Backend_ObjectKey(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	withPrefix, err := NewS3Backend("bucket", "/sar/", "us-east-1", "", "", "", logger)
	require.NoError(t, err)
	assert.Equal(t, "sar/dir/file.bin", withPrefix.getObjectKey("/dir/file.bin"))

	noPrefix, err := NewS3Backend("bucket", "", "us-east-1", "", "", "", logger)
	require.NoError(t, err)
	assert.Equal(t, "dir/file.bin", noPrefix.getObjectKey("/dir/file.bin"))
	assert.Equal(t, "s3-bucket", noPrefix.Name())
}
