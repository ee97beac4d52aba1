// Package catalog holds the in-memory handbook catalog and keeps it
// consistent with the persisted blob.
package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/alexanderramin/handbook/internal/events"
	"github.com/alexanderramin/handbook/internal/importer"
	"github.com/alexanderramin/handbook/internal/repository"
	"github.com/alexanderramin/handbook/internal/source"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrHistoryUnsupported is returned by History and RestoreRevision when the
// backend keeps no revisions.
var ErrHistoryUnsupported = errors.New("storage backend does not keep history")

// Store is the catalog. It is safe for concurrent use; mutations are
// serialized and each one validates, persists, swaps and publishes before
// the next begins.
type Store struct {
	mu      sync.RWMutex
	state   domain.Aggregate
	ready   bool
	readyCh chan struct{}
	initMu  sync.Mutex

	blobs        repository.BlobStore
	source       source.Source
	publisher    Publisher
	observer     Observer
	clock        func() time.Time
	newID        func() string
	key          string
	fetchTimeout time.Duration
	defaults     []domain.DepartmentInput
	logger       *zap.Logger
}

// New creates an uninitialized store persisting to blobs.
func New(blobs repository.BlobStore, opts ...Option) *Store {
	s := &Store{
		readyCh:      make(chan struct{}),
		blobs:        blobs,
		publisher:    noopPublisher{},
		observer:     NoopObserver{},
		clock:        time.Now,
		newID:        newUUID,
		key:          DefaultStorageKey,
		fetchTimeout: DefaultFetchTimeout,
		defaults:     DefaultDepartments,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("catalog")
	return s
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

// Ready is closed once Initialize has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.readyCh
}

// Initialize loads the catalog from the stored blob, else from the seed
// source, else from the default departments. Load failures are logged and
// fall through to the next option; the only error returned is the context's.
// Calling Initialize on a ready store does nothing.
func (s *Store) Initialize(ctx context.Context) (err error) {
	start := time.Now()
	fields := map[string]any{}
	defer func() { s.observe(ctx, "initialize", start, err, fields) }()

	s.initMu.Lock()
	defer s.initMu.Unlock()

	select {
	case <-s.readyCh:
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	agg, origin := s.loadStored(ctx)
	if origin == "" {
		agg, origin = s.loadSource(ctx)
	}
	if origin == "" {
		agg, origin = s.loadDefaults(), "defaults"
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fields["origin"] = origin

	s.mu.Lock()
	s.state = agg
	s.ready = true
	close(s.readyCh)
	snapshot := agg.Clone()
	s.mu.Unlock()

	stats := snapshot.Stats()
	s.logger.Info("catalog ready",
		zap.String("origin", origin),
		zap.String("backend", string(s.blobs.Driver())),
		zap.Int("departments", stats.Departments),
		zap.Int("categories", stats.Categories),
		zap.Int("processes", stats.Processes),
	)
	s.publisher.Publish(events.Event{Topic: events.TopicInitialized, Catalog: snapshot, Timestamp: s.now()})
	return nil
}

func (s *Store) loadStored(ctx context.Context) (domain.Aggregate, string) {
	data, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, repository.ErrBlobNotFound) {
			s.logger.Warn("reading stored catalog failed", zap.String("key", s.key), zap.Error(err))
		}
		return domain.Aggregate{}, ""
	}
	doc, err := importer.DecodeStandard(data)
	if err == nil {
		err = domain.NewValidationError(importer.ValidateStandard(doc))
	}
	if err != nil {
		s.logger.Warn("stored catalog is invalid, ignoring it", zap.String("key", s.key), zap.Error(err))
		return domain.Aggregate{}, ""
	}
	return importer.ConvertStandard(doc, s.now()), "storage"
}

func (s *Store) loadSource(ctx context.Context) (domain.Aggregate, string) {
	if s.source == nil {
		return domain.Aggregate{}, ""
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	name := s.source.Name()
	data, err := s.source.Fetch(fetchCtx)
	if err != nil {
		s.logger.Warn("fetching seed failed", zap.String("source", name), zap.Error(err))
		return domain.Aggregate{}, ""
	}
	doc, err := importer.Decode(data)
	if err != nil {
		s.logger.Warn("decoding seed failed", zap.String("source", name), zap.Error(err))
		return domain.Aggregate{}, ""
	}
	agg, err := doc.ToAggregate(s.now(), s.newID)
	if err != nil {
		s.logger.Warn("converting seed failed", zap.String("source", name), zap.Stringer("shape", doc.Shape), zap.Error(err))
		return domain.Aggregate{}, ""
	}
	if err := s.persist(ctx, agg); err != nil {
		s.logger.Error("persisting seeded catalog failed", zap.Error(err))
	}
	return agg, "source"
}

func (s *Store) loadDefaults() domain.Aggregate {
	agg := domain.Aggregate{
		SchemaVersion: domain.SchemaVersion,
		Departments:   []domain.Department{},
		Categories:    []domain.Category{},
		Processes:     []domain.Process{},
	}
	now := s.now()
	for _, in := range s.defaults {
		next, _, err := addDepartment(agg, in, s.newID(), now)
		if err != nil {
			s.logger.Warn("skipping invalid default department", zap.String("name", in.Name), zap.Error(err))
			continue
		}
		agg = next
	}
	return agg
}

func (s *Store) persist(ctx context.Context, agg domain.Aggregate) error {
	data, err := importer.EncodeAggregate(agg)
	if err != nil {
		return domain.PersistenceError("encoding catalog", err)
	}
	if err := s.blobs.Put(ctx, s.key, data); err != nil {
		return domain.PersistenceError("saving catalog", err)
	}
	return nil
}

// read runs fn against the current state under the read lock.
func (s *Store) read(fn func(agg domain.Aggregate)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return domain.ErrNotInitialized
	}
	fn(s.state)
	return nil
}

// mutate computes the next state with fn, persists it and only then swaps
// it in and publishes. On any error the current state is left untouched.
func (s *Store) mutate(ctx context.Context, name string, fields map[string]any, fn func(agg domain.Aggregate, now time.Time) (domain.Aggregate, error)) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, name, start, err, fields) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return domain.ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	next, err := fn(s.state.Clone(), now)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.state = next
	s.publisher.Publish(events.Event{Topic: events.TopicUpdated, Catalog: next.Clone(), Timestamp: now})
	return nil
}

func byOrder[T any](order func(T) int) func(a, b T) int {
	return func(a, b T) int { return cmp.Compare(order(a), order(b)) }
}

func sortedDepartments(agg domain.Aggregate) []domain.Department {
	out := slices.Clone(agg.Departments)
	slices.SortStableFunc(out, byOrder(func(d domain.Department) int { return d.Order }))
	return domain.NonNil(out)
}

func sortedCategories(agg domain.Aggregate, deptID string) []domain.Category {
	out := []domain.Category{}
	for _, c := range agg.Categories {
		if c.DepartmentID == deptID {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, byOrder(func(c domain.Category) int { return c.Order }))
	return out
}

func sortedProcesses(agg domain.Aggregate, catID string) []domain.Process {
	out := []domain.Process{}
	for _, p := range agg.Processes {
		if p.CategoryID == catID {
			out = append(out, p.Clone())
		}
	}
	slices.SortStableFunc(out, byOrder(func(p domain.Process) int { return p.Order }))
	return out
}

// Departments lists every department sorted by order.
func (s *Store) Departments() ([]domain.Department, error) {
	var out []domain.Department
	err := s.read(func(agg domain.Aggregate) { out = sortedDepartments(agg) })
	return out, err
}

// CategoriesByDepartment lists the department's categories sorted by order.
// An unknown department yields an empty list.
func (s *Store) CategoriesByDepartment(deptID string) ([]domain.Category, error) {
	var out []domain.Category
	err := s.read(func(agg domain.Aggregate) { out = sortedCategories(agg, deptID) })
	return out, err
}

// ProcessesByCategory lists the category's processes sorted by order.
func (s *Store) ProcessesByCategory(catID string) ([]domain.Process, error) {
	var out []domain.Process
	err := s.read(func(agg domain.Aggregate) { out = sortedProcesses(agg, catID) })
	return out, err
}

// DepartmentByID returns nil, nil when no department has id.
func (s *Store) DepartmentByID(id string) (*domain.Department, error) {
	var out *domain.Department
	err := s.read(func(agg domain.Aggregate) {
		if i := indexOfDepartment(agg, id); i >= 0 {
			d := agg.Departments[i]
			out = &d
		}
	})
	return out, err
}

func (s *Store) CategoryByID(id string) (*domain.Category, error) {
	var out *domain.Category
	err := s.read(func(agg domain.Aggregate) {
		if i := indexOfCategory(agg, id); i >= 0 {
			c := agg.Categories[i]
			out = &c
		}
	})
	return out, err
}

func (s *Store) ProcessByID(id string) (*domain.Process, error) {
	var out *domain.Process
	err := s.read(func(agg domain.Aggregate) {
		if i := indexOfProcess(agg, id); i >= 0 {
			p := agg.Processes[i].Clone()
			out = &p
		}
	})
	return out, err
}

// Snapshot returns a deep copy of the whole catalog.
func (s *Store) Snapshot() (domain.Aggregate, error) {
	var out domain.Aggregate
	err := s.read(func(agg domain.Aggregate) { out = agg.Clone() })
	return out, err
}

// Tree returns the catalog as sorted nested nodes.
func (s *Store) Tree() ([]domain.DepartmentNode, error) {
	var out []domain.DepartmentNode
	err := s.read(func(agg domain.Aggregate) {
		depts := sortedDepartments(agg)
		out = make([]domain.DepartmentNode, 0, len(depts))
		for _, d := range depts {
			cats := sortedCategories(agg, d.ID)
			node := domain.DepartmentNode{Department: d, Categories: make([]domain.CategoryNode, 0, len(cats))}
			for _, c := range cats {
				node.Categories = append(node.Categories, domain.CategoryNode{
					Category:  c,
					Processes: sortedProcesses(agg, c.ID),
				})
			}
			out = append(out, node)
		}
	})
	return out, err
}

func (s *Store) Stats() (domain.Stats, error) {
	var out domain.Stats
	err := s.read(func(agg domain.Aggregate) { out = agg.Stats() })
	return out, err
}

func (s *Store) AddDepartment(ctx context.Context, in domain.DepartmentInput) (domain.Department, error) {
	var out domain.Department
	fields := map[string]any{}
	err := s.mutate(ctx, "add_department", fields, func(agg domain.Aggregate, now time.Time) (domain.Aggregate, error) {
		next, d, err := addDepartment(agg, in, s.newID(), now)
		out = d
		fields["id"] = d.ID
		return next, err
	})
	if err != nil {
		return domain.Department{}, err
	}
	return out, nil
}

func (s *Store) UpdateDepartment(ctx context.Context, id string, patch domain.DepartmentPatch) (domain.Department, error) {
	var out domain.Department
	err := s.mutate(ctx, "update_department", map[string]any{"id": id}, func(agg domain.Aggregate, now time.Time) (domain.Aggregate, error) {
		next, d, err := updateDepartment(agg, id, patch, now)
		out = d
		return next, err
	})
	if err != nil {
		return domain.Department{}, err
	}
	return out, nil
}

// DeleteDepartment removes the department together with its categories and
// their processes.
func (s *Store) DeleteDepartment(ctx context.Context, id string) (domain.DeleteResult, error) {
	return s.remove(ctx, "delete_department", id, deleteDepartment)
}

func (s *Store) AddCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	var out domain.Category
	fields := map[string]any{"department_id": in.DepartmentID}
	err := s.mutate(ctx, "add_category", fields, func(agg domain.Aggregate, now time.Time) (domain.Aggregate, error) {
		next, c, err := addCategory(agg, in, s.newID(), now)
		out = c
		fields["id"] = c.ID
		return next, err
	})
	if err != nil {
		return domain.Category{}, err
	}
	return out, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, patch domain.CategoryPatch) (domain.Category, error) {
	var out domain.Category
	err := s.mutate(ctx, "update_category", map[string]any{"id": id}, func(agg domain.Aggregate, now time.Time) (domain.Aggregate, error) {
		next, c, err := updateCategory(agg, id, patch, now)
		out = c
		return next, err
	})
	if err != nil {
		return domain.Category{}, err
	}
	return out, nil
}

// DeleteCategory removes the category and its processes.
func (s *Store) DeleteCategory(ctx context.Context, id string) (domain.DeleteResult, error) {
	return s.remove(ctx, "delete_category", id, deleteCategory)
}

func (s *Store) AddProcess(ctx context.Context, in domain.ProcessInput) (domain.Process, error) {
	var out domain.Process
	fields := map[string]any{"category_id": in.CategoryID}
	err := s.mutate(ctx, "add_process", fields, func(agg domain.Aggregate, now time.Time) (domain.Aggregate, error) {
		next, p, err := addProcess(agg, in, s.newID(), now)
		out = p
		fields["id"] = p.ID
		return next, err
	})
	if err != nil {
		return domain.Process{}, err
	}
	return out, nil
}

func (s *Store) UpdateProcess(ctx context.Context, id string, patch domain.ProcessPatch) (domain.Process, error) {
	var out domain.Process
	err := s.mutate(ctx, "update_process", map[string]any{"id": id}, func(agg domain.Aggregate, now time.Time) (domain.Aggregate, error) {
		next, p, err := updateProcess(agg, id, patch, now)
		out = p
		return next, err
	})
	if err != nil {
		return domain.Process{}, err
	}
	return out, nil
}

func (s *Store) DeleteProcess(ctx context.Context, id string) (domain.DeleteResult, error) {
	return s.remove(ctx, "delete_process", id, deleteProcess)
}

func (s *Store) remove(ctx context.Context, name, id string, fn func(domain.Aggregate, string) (domain.Aggregate, domain.DeleteResult, error)) (domain.DeleteResult, error) {
	var res domain.DeleteResult
	fields := map[string]any{"id": id}
	err := s.mutate(ctx, name, fields, func(agg domain.Aggregate, _ time.Time) (domain.Aggregate, error) {
		next, r, err := fn(agg, id)
		res = r
		fields["removed_categories"] = r.Categories
		fields["removed_processes"] = r.Processes
		return next, err
	})
	if err != nil {
		return domain.DeleteResult{}, err
	}
	return res, nil
}

// Search scores processes and categories against query. Queries shorter
// than two characters after trimming yield no results.
func (s *Store) Search(query string) ([]domain.SearchResult, error) {
	start := time.Now()
	var out []domain.SearchResult
	err := s.read(func(agg domain.Aggregate) { out = search(agg, query) })
	s.observe(context.Background(), "search", start, err, map[string]any{"results": len(out)})
	return out, err
}

// Export returns a copy of the catalog stamped with the export time.
func (s *Store) Export() (domain.Export, error) {
	var out domain.Export
	err := s.read(func(agg domain.Aggregate) {
		snap := agg.Clone()
		snap.SchemaVersion = domain.SchemaVersion
		snap.Departments = domain.NonNil(snap.Departments)
		snap.Categories = domain.NonNil(snap.Categories)
		snap.Processes = domain.NonNil(snap.Processes)
		out = domain.Export{Aggregate: snap, ExportedAt: s.now()}
	})
	return out, err
}

// Import replaces the whole catalog with agg after checking its structure
// and referential integrity.
func (s *Store) Import(ctx context.Context, agg domain.Aggregate) error {
	return s.mutate(ctx, "import", importFields(agg), func(domain.Aggregate, time.Time) (domain.Aggregate, error) {
		return replaceAll(agg, importer.ValidateAggregate)
	})
}

// ImportJSON decodes data in either interchange shape and replaces the
// catalog with it.
func (s *Store) ImportJSON(ctx context.Context, data []byte) error {
	fields := map[string]any{"bytes": len(data)}
	return s.mutate(ctx, "import", fields, func(_ domain.Aggregate, now time.Time) (domain.Aggregate, error) {
		doc, err := importer.Decode(data)
		if err != nil {
			return domain.Aggregate{}, err
		}
		fields["shape"] = doc.Shape.String()
		agg, err := doc.ToAggregate(now, s.newID)
		if err != nil {
			return domain.Aggregate{}, err
		}
		return replaceAll(agg, importer.ValidateAggregate)
	})
}

func importFields(agg domain.Aggregate) map[string]any {
	st := agg.Stats()
	return map[string]any{
		"departments": st.Departments,
		"categories":  st.Categories,
		"processes":   st.Processes,
	}
}

// History lists the stored revisions of the catalog blob, newest first.
func (s *Store) History(ctx context.Context) ([]repository.RevisionInfo, error) {
	if err := s.read(func(domain.Aggregate) {}); err != nil {
		return nil, err
	}
	hs, ok := s.blobs.(repository.HistoryStore)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHistoryUnsupported, s.blobs.Driver())
	}
	revs, err := hs.Revisions(ctx, s.key)
	if err != nil {
		return nil, domain.PersistenceError("listing revisions", err)
	}
	return revs, nil
}

// RestoreRevision replaces the catalog with a stored revision. The restored
// catalog is saved as a new revision.
func (s *Store) RestoreRevision(ctx context.Context, revision int64) error {
	hs, ok := s.blobs.(repository.HistoryStore)
	if !ok {
		return fmt.Errorf("%w: %s", ErrHistoryUnsupported, s.blobs.Driver())
	}
	return s.mutate(ctx, "restore_revision", map[string]any{"revision": revision}, func(_ domain.Aggregate, now time.Time) (domain.Aggregate, error) {
		data, err := hs.Revision(ctx, s.key, revision)
		if errors.Is(err, repository.ErrBlobNotFound) {
			return domain.Aggregate{}, domain.NotFoundError("revision", fmt.Sprint(revision))
		}
		if err != nil {
			return domain.Aggregate{}, domain.PersistenceError("loading revision", err)
		}
		doc, err := importer.DecodeStandard(data)
		if err != nil {
			return domain.Aggregate{}, err
		}
		if err := domain.NewValidationError(importer.ValidateStandard(doc)); err != nil {
			return domain.Aggregate{}, err
		}
		return importer.ConvertStandard(doc, now), nil
	})
}
