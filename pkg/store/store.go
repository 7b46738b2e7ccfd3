// Package store persists serialized studies.
//
// A study is stored as an opaque document under a reference string. The
// backends are:
//   - file: one JSON file per study, for the CLI (default)
//   - redis: shared storage for several machines polling the same jobs
//   - mongo: long-lived archive of studies
//
// Callers encode and decode documents themselves; see studio.Encode.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no document exists under a reference.
var ErrNotFound = errors.New("not found")

// Store is the interface for study storage backends.
type Store interface {
	// Load returns the document stored under ref, or ErrNotFound.
	Load(ctx context.Context, ref string) ([]byte, error)

	// Save stores data under ref, replacing any previous document.
	Save(ctx context.Context, ref string, data []byte) error

	// Delete removes ref. Deleting a missing document is not an error.
	Delete(ctx context.Context, ref string) error

	// List returns the references of all stored documents.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Dir     string // file
	URL     string // redis or mongo connection URL
	Prefix  string // redis key prefix or mongo database name
}

// Open connects to the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.URL, cfg.Prefix)
	case BackendMongo:
		return NewMongoStore(ctx, cfg.URL, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
