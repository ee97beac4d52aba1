package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/handbook/internal/config"
	"github.com/alexanderramin/handbook/internal/db"
)

// Open selects and constructs the blob store named by cfg.Driver. The
// returned close function releases any underlying connection.
func Open(ctx context.Context, cfg config.StorageConfig) (BlobStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverSQLite, "":
		conn, err := db.OpenDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite blob store: %w", err)
		}
		return NewSQLBlobStore(conn, db.SQLite, cfg.HistoryLimit), conn.Close, nil
	case config.DriverPostgres:
		conn, err := db.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres blob store: %w", err)
		}
		return NewSQLBlobStore(conn, db.Postgres, cfg.HistoryLimit), conn.Close, nil
	case config.DriverS3:
		store, err := NewS3BlobStore(ctx, S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening s3 blob store: %w", err)
		}
		return store, noop, nil
	case config.DriverFS:
		store, err := NewFSBlobStore(cfg.FSDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening fs blob store: %w", err)
		}
		return store, noop, nil
	case config.DriverMemory:
		return NewMemoryBlobStore(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
