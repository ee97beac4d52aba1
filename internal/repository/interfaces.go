package repository

import (
	"context"
	"errors"
	"time"
)

// Driver identifies a concrete blob backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverS3       Driver = "s3"
	DriverFS       Driver = "fs"
	DriverMemory   Driver = "memory"
)

// ErrBlobNotFound is returned by Get when no blob is stored under the key.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a key-value store of opaque byte payloads. The catalog keeps
// its whole aggregate under a single key.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Driver() Driver
}

// RevisionInfo describes one stored version of a blob.
type RevisionInfo struct {
	Key       string    `json:"key"`
	Revision  int64     `json:"revision"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryStore is implemented by backends that keep previous versions.
type HistoryStore interface {
	Revisions(ctx context.Context, key string) ([]RevisionInfo, error)
	Revision(ctx context.Context, key string, revision int64) ([]byte, error)
}
