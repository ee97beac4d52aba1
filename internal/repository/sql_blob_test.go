package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alexanderramin/handbook/internal/db"
	"github.com/alexanderramin/handbook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLBlobStore_RecordsRevisions(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewSQLBlobStore(database, db.SQLite, 10)
	ctx := context.Background()

	for _, v := range []string{"v1", "v2", "v3"} {
		require.NoError(t, store.Put(ctx, "k", []byte(v)))
	}

	revs, err := store.Revisions(ctx, "k")
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, int64(3), revs[0].Revision, "newest first")
	assert.Equal(t, int64(1), revs[2].Revision)
	assert.Equal(t, 2, revs[0].Size)
	assert.Equal(t, "k", revs[0].Key)
	assert.False(t, revs[0].CreatedAt.IsZero())

	old, err := store.Revision(ctx, "k", 1)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(old))

	var current int64
	require.NoError(t, database.QueryRow(`SELECT revision FROM blobs WHERE blob_key = 'k'`).Scan(&current))
	assert.Equal(t, int64(3), current)
}

func TestSQLBlobStore_PrunesToHistoryLimit(t *testing.T) {
	store := NewSQLBlobStore(testutil.NewTestDB(t), db.SQLite, 3)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		require.NoError(t, store.Put(ctx, "k", []byte(fmt.Sprintf("v%d", i))))
	}

	revs, err := store.Revisions(ctx, "k")
	require.NoError(t, err)
	require.Len(t, revs, 3)
	assert.Equal(t, []int64{7, 6, 5}, []int64{revs[0].Revision, revs[1].Revision, revs[2].Revision})

	_, err = store.Revision(ctx, "k", 1)
	assert.True(t, errors.Is(err, ErrBlobNotFound))
}

func TestSQLBlobStore_DefaultHistoryLimit(t *testing.T) {
	store := NewSQLBlobStore(testutil.NewTestDB(t), db.SQLite, 0)
	assert.Equal(t, DefaultHistoryLimit, store.historyLimit)
}

func TestSQLBlobStore_RevisionsOfUnknownKey(t *testing.T) {
	store := NewSQLBlobStore(testutil.NewTestDB(t), db.SQLite, 3)
	revs, err := store.Revisions(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, revs)
}

func TestSQLBlobStore_FailedWriteRollsBack(t *testing.T) {
	database := testutil.NewTestDB(t)
	good := NewSQLBlobStore(database, db.SQLite, 5)
	ctx := context.Background()
	require.NoError(t, good.Put(ctx, "k", []byte("original")))

	injected := errors.New("disk full")
	// Second exec inside the transaction is the revision insert.
	failing := NewSQLBlobStoreWithTx(database,
		&testutil.FaultyTx{Runner: db.NewTxRunner(database, db.SQLite), FailAt: 2, Err: injected},
		db.SQLite, 5)

	err := failing.Put(ctx, "k", []byte("replacement"))
	require.Error(t, err)
	assert.ErrorIs(t, err, injected)

	got, err := good.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got), "blob upsert must roll back with the revision insert")

	revs, err := good.Revisions(ctx, "k")
	require.NoError(t, err)
	assert.Len(t, revs, 1)
}

func TestSQLBlobStore_Driver(t *testing.T) {
	database := testutil.NewTestDB(t)
	assert.Equal(t, DriverSQLite, NewSQLBlobStore(database, db.SQLite, 1).Driver())
	assert.Equal(t, DriverPostgres, NewSQLBlobStore(database, db.Postgres, 1).Driver())
}

func TestSQLBlobStore_ConcurrentPuts(t *testing.T) {
	store := NewSQLBlobStore(testutil.NewFileTestDB(t), db.SQLite, 100)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Put(ctx, "k", []byte(fmt.Sprintf("w%d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	require.Positive(t, succeeded)

	revs, err := store.Revisions(ctx, "k")
	require.NoError(t, err)
	assert.Len(t, revs, succeeded, "every successful put records exactly one revision")
}
