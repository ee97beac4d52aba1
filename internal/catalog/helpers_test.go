package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/alexanderramin/handbook/internal/events"
	"github.com/alexanderramin/handbook/internal/importer"
	"github.com/alexanderramin/handbook/internal/repository"
	"github.com/alexanderramin/handbook/internal/testutil"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

// flakyBlobStore wraps a memory store and fails writes on demand.
type flakyBlobStore struct {
	*repository.MemoryBlobStore
	failPut atomic.Bool
	failGet atomic.Bool
	puts    atomic.Int64
}

func newFlakyBlobStore() *flakyBlobStore {
	return &flakyBlobStore{MemoryBlobStore: repository.NewMemoryBlobStore()}
}

func (f *flakyBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet.Load() {
		return nil, errDiskFull
	}
	return f.MemoryBlobStore.Get(ctx, key)
}

func (f *flakyBlobStore) Put(ctx context.Context, key string, data []byte) error {
	if f.failPut.Load() {
		return errDiskFull
	}
	f.puts.Add(1)
	return f.MemoryBlobStore.Put(ctx, key, data)
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) topics() []events.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Topic, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Topic
	}
	return out
}

func (p *recordingPublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

// seedBlob stores agg under the default key so Initialize adopts it.
func seedBlob(t *testing.T, blobs repository.BlobStore, agg domain.Aggregate) {
	t.Helper()
	data, err := importer.EncodeAggregate(agg)
	require.NoError(t, err)
	require.NoError(t, blobs.Put(context.Background(), DefaultStorageKey, data))
}

// newSampleStore returns a ready store loaded with testutil.SampleAggregate.
func newSampleStore(t *testing.T, opts ...Option) (*Store, *flakyBlobStore, domain.Aggregate) {
	t.Helper()
	blobs := newFlakyBlobStore()
	sample := testutil.SampleAggregate()
	seedBlob(t, blobs, sample)

	clock := testutil.NewClock(testutil.Epoch.Add(time.Hour), time.Second)
	opts = append([]Option{WithClock(clock.Now), WithIDGenerator(testutil.SequentialIDs("id"))}, opts...)
	s := New(blobs, opts...)
	require.NoError(t, s.Initialize(context.Background()))
	return s, blobs, sample
}

// assertIntegrity fails when any category or process references a missing parent.
func assertIntegrity(t *testing.T, agg domain.Aggregate) {
	t.Helper()
	depts := map[string]bool{}
	for _, d := range agg.Departments {
		require.False(t, depts[d.ID], "duplicate department id %s", d.ID)
		depts[d.ID] = true
	}
	cats := map[string]bool{}
	for _, c := range agg.Categories {
		require.False(t, cats[c.ID], "duplicate category id %s", c.ID)
		require.True(t, depts[c.DepartmentID], "category %s has dangling department %s", c.ID, c.DepartmentID)
		cats[c.ID] = true
	}
	for _, p := range agg.Processes {
		require.True(t, cats[p.CategoryID], "process %s has dangling category %s", p.ID, p.CategoryID)
	}
}

func ptr[T any](v T) *T { return &v }
