package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/ruteri/simple-artefact-registry/interfaces"
)

// StorageBackendFactory creates artefact stores from base directory settings
// and shares one store between all routes with the same base directory.
type StorageBackendFactory struct {
	log *slog.Logger

	mu       sync.Mutex
	backends map[string]interfaces.ArtefactStore
}

// NewStorageBackendFactory creates a new factory instance that can create storage backends.
func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	return &StorageBackendFactory{
		log:      logger,
		backends: make(map[string]interfaces.ArtefactStore),
	}
}

// BackendFor returns the store for a base directory setting.
//
// Supported forms:
//   - /var/lib/sar or ./relative - Local filesystem storage
//   - file:///var/lib/sar - Local filesystem storage
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket[/prefix][?region=..&endpoint=..] - S3 compatible storage
//
// Returns an error if the location is invalid or the scheme is unsupported.
func (sf *StorageBackendFactory) BackendFor(baseDirectory string) (interfaces.ArtefactStore, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	if backend, ok := sf.backends[baseDirectory]; ok {
		return backend, nil
	}

	backend, err := sf.create(baseDirectory)
	if err != nil {
		return nil, err
	}

	sf.log.Info("Created artefact storage backend",
		slog.String("name", backend.Name()),
		slog.String("locationURI", backend.LocationURI()))

	sf.backends[baseDirectory] = backend
	return backend, nil
}

func (sf *StorageBackendFactory) create(baseDirectory string) (interfaces.ArtefactStore, error) {
	if baseDirectory == "" {
		return nil, fmt.Errorf("%w: empty base directory", interfaces.ErrInvalidLocationURI)
	}

	if !strings.Contains(baseDirectory, "://") {
		return NewFileBackend(baseDirectory, sf.log)
	}

	u, err := url.Parse(baseDirectory)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "s3":
		return sf.createS3Backend(u)
	case "file":
		return sf.createFileBackend(u)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme: %s", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createS3Backend creates an S3 or S3-compatible storage backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=custom.s3.com
func (sf *StorageBackendFactory) createS3Backend(u *url.URL) (interfaces.ArtefactStore, error) {
	sf.log.Debug("Creating S3 backend", slog.String("bucket", u.Host))

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1" // Default region
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
		sf.log.Debug("Using embedded S3 credentials")
	} else {
		sf.log.Debug("No S3 credentials in base directory, using the default AWS credential chain")
	}

	return NewS3Backend(u.Host, strings.TrimPrefix(u.Path, "/"), region, query.Get("endpoint"), accessKey, secretKey, sf.log)
}

// createFileBackend creates a file system storage backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StorageBackendFactory) createFileBackend(u *url.URL) (interfaces.ArtefactStore, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileBackend(path, sf.log)
}
