package catalog

import (
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/alexanderramin/handbook/internal/events"
	"github.com/alexanderramin/handbook/internal/source"
	"go.uber.org/zap"
)

const (
	// DefaultStorageKey is the blob key the aggregate is persisted under.
	DefaultStorageKey = "handbook:catalog"

	// DefaultFetchTimeout bounds the seed fetch during Initialize.
	DefaultFetchTimeout = 10 * time.Second
)

// Publisher receives catalog events. *events.Bus satisfies it.
type Publisher interface {
	Publish(events.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(events.Event) {}

// Option configures a Store.
type Option func(*Store)

// WithSource sets the bulk-load source used when no catalog is stored.
func WithSource(src source.Source) Option {
	return func(s *Store) { s.source = src }
}

func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock replaces time.Now. Times are converted to UTC.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.clock = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithStorageKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithDefaultDepartments replaces the built-in fallback department set.
func WithDefaultDepartments(depts []domain.DepartmentInput) Option {
	return func(s *Store) {
		s.defaults = append([]domain.DepartmentInput(nil), depts...)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// DefaultDepartments is the department set adopted when neither a stored
// catalog nor a seed source is available.
var DefaultDepartments = []domain.DepartmentInput{
	{Name: "기획조정실", Description: "기획, 예산 조정 및 성과 관리"},
	{Name: "총무과", Description: "인사, 복무 및 청사 관리"},
	{Name: "민원봉사과", Description: "민원 접수 및 처리"},
	{Name: "재무과", Description: "회계, 계약 및 재산 관리"},
}
