package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/handbook/internal/db"
)

// DefaultHistoryLimit is the number of revisions kept per key when none is configured.
const DefaultHistoryLimit = 20

// SQLBlobStore keeps blobs in the blobs table and every write in
// blob_revisions. It serves both SQLite and Postgres.
type SQLBlobStore struct {
	db           db.Querier
	tx           db.Transactor
	dialect      db.Dialect
	historyLimit int
}

// NewSQLBlobStore creates a blob store over an already migrated database.
// A historyLimit below 1 falls back to DefaultHistoryLimit.
func NewSQLBlobStore(conn *sql.DB, dialect db.Dialect, historyLimit int) *SQLBlobStore {
	return NewSQLBlobStoreWithTx(conn, db.NewTxRunner(conn, dialect), dialect, historyLimit)
}

// NewSQLBlobStoreWithTx is NewSQLBlobStore with an explicit transactor for writes.
func NewSQLBlobStoreWithTx(conn db.Querier, tx db.Transactor, dialect db.Dialect, historyLimit int) *SQLBlobStore {
	if historyLimit < 1 {
		historyLimit = DefaultHistoryLimit
	}
	return &SQLBlobStore{db: conn, tx: tx, dialect: dialect, historyLimit: historyLimit}
}

func (s *SQLBlobStore) Driver() Driver {
	if s.dialect == db.Postgres {
		return DriverPostgres
	}
	return DriverSQLite
}

func (s *SQLBlobStore) q(query string) string { return db.Rebind(s.dialect, query) }

func (s *SQLBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT payload FROM blobs WHERE blob_key = ?`), key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %q: %w", key, err)
	}
	return payload, nil
}

// Put overwrites the blob, records a new revision and prunes revisions
// beyond the history limit, all in one transaction.
func (s *SQLBlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	payload := copyBytes(data)
	return s.tx.InTx(ctx, func(ctx context.Context, tx db.Querier) error {
		var current int64
		err := tx.QueryRowContext(ctx,
			s.q(`SELECT revision FROM blobs WHERE blob_key = ?`), key,
		).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("reading blob revision: %w", err)
		}
		next := current + 1
		now := nowUTC()

		if _, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO blobs (blob_key, payload, revision, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (blob_key) DO UPDATE SET
			   payload = excluded.payload,
			   revision = excluded.revision,
			   updated_at = excluded.updated_at`),
			key, payload, next, now,
		); err != nil {
			return fmt.Errorf("writing blob %q: %w", key, err)
		}

		if _, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO blob_revisions (blob_key, revision, payload, created_at) VALUES (?, ?, ?, ?)`),
			key, next, payload, now,
		); err != nil {
			return fmt.Errorf("recording blob revision: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			s.q(`DELETE FROM blob_revisions WHERE blob_key = ? AND revision <= ?`),
			key, next-int64(s.historyLimit),
		); err != nil {
			return fmt.Errorf("pruning blob revisions: %w", err)
		}
		return nil
	})
}

// Revisions lists the retained revisions of key, newest first.
func (s *SQLBlobStore) Revisions(ctx context.Context, key string) ([]RevisionInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT revision, LENGTH(payload), created_at FROM blob_revisions
		 WHERE blob_key = ? ORDER BY revision DESC`), key,
	)
	if err != nil {
		return nil, fmt.Errorf("listing revisions of %q: %w", key, err)
	}
	defer rows.Close()

	var out []RevisionInfo
	for rows.Next() {
		var (
			info      RevisionInfo
			createdAt string
		)
		if err := rows.Scan(&info.Revision, &info.Size, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		info.Key = key
		info.CreatedAt = parseTime(createdAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Revision returns the payload stored at one revision of key.
func (s *SQLBlobStore) Revision(ctx context.Context, key string, revision int64) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT payload FROM blob_revisions WHERE blob_key = ? AND revision = ?`),
		key, revision,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading revision %d of %q: %w", revision, key, err)
	}
	return payload, nil
}

var (
	_ BlobStore    = (*SQLBlobStore)(nil)
	_ HistoryStore = (*SQLBlobStore)(nil)
)
