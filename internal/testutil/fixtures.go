package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/google/uuid"
)

// Epoch is the default instant used by fixture clocks.
var Epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Clock is a controllable time source. Now advances by Step on every call
// unless Step is zero.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start, Step: step}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}

// Set moves the clock to t. Setting it backwards simulates a clock regression.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// SequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

// Department options
type DepartmentOption func(*domain.Department)

func WithDepartmentOrder(o int) DepartmentOption {
	return func(d *domain.Department) {
		d.Order = o
	}
}

func WithManager(manager, contact string) DepartmentOption {
	return func(d *domain.Department) {
		d.Manager = manager
		d.Contact = contact
	}
}

func NewTestDepartment(name string, opts ...DepartmentOption) domain.Department {
	d := domain.Department{
		ID:          uuid.New().String(),
		Name:        name,
		Description: name + " department",
		CreatedAt:   Epoch,
		UpdatedAt:   Epoch,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Category options
type CategoryOption func(*domain.Category)

func WithCategoryOrder(o int) CategoryOption {
	return func(c *domain.Category) {
		c.Order = o
	}
}

func WithCategoryDescription(desc string) CategoryOption {
	return func(c *domain.Category) {
		c.Description = desc
	}
}

func WithLegalBasis(basis string) CategoryOption {
	return func(c *domain.Category) {
		c.LegalBasis = basis
	}
}

func NewTestCategory(departmentID, name string, opts ...CategoryOption) domain.Category {
	c := domain.Category{
		ID:           uuid.New().String(),
		Name:         name,
		DepartmentID: departmentID,
		CreatedAt:    Epoch,
		UpdatedAt:    Epoch,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Process options
type ProcessOption func(*domain.Process)

func WithProcessDescription(desc string) ProcessOption {
	return func(p *domain.Process) {
		p.Description = desc
	}
}

func WithTags(tags ...string) ProcessOption {
	return func(p *domain.Process) {
		p.Tags = tags
	}
}

func WithSteps(steps ...domain.Step) ProcessOption {
	return func(p *domain.Process) {
		p.Steps = steps
	}
}

func WithProcessOrder(o int) ProcessOption {
	return func(p *domain.Process) {
		p.Order = o
	}
}

func NewTestProcess(categoryID, title string, opts ...ProcessOption) domain.Process {
	p := domain.Process{
		ID:         uuid.New().String(),
		Title:      title,
		CategoryID: categoryID,
		Steps:      []domain.Step{},
		LegalBasis: []string{},
		Outputs:    []string{},
		References: []string{},
		Tags:       []string{},
		CreatedAt:  Epoch,
		UpdatedAt:  Epoch,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// SampleAggregate returns a small, referentially sound catalog: two
// departments, three categories and three processes.
func SampleAggregate() domain.Aggregate {
	civil := NewTestDepartment("민원실", WithDepartmentOrder(0))
	finance := NewTestDepartment("재무과", WithDepartmentOrder(1), WithManager("김재무", "02-120"))

	intake := NewTestCategory(civil.ID, "접수", WithCategoryOrder(0))
	complaints := NewTestCategory(civil.ID, "민원업무", WithCategoryOrder(1))
	budget := NewTestCategory(finance.ID, "예산", WithCategoryOrder(0), WithLegalBasis("지방재정법"))

	apply := NewTestProcess(intake.ID, "민원신청",
		WithProcessDescription("민원 접수 절차"),
		WithTags("민원"),
		WithSteps(domain.Step{StepNumber: 1, Title: "신청서 작성", Description: "양식 작성"}),
	)
	track := NewTestProcess(intake.ID, "처리 현황 조회", WithProcessOrder(1))
	plan := NewTestProcess(budget.ID, "예산 편성", WithProcessDescription("연간 예산안 작성"))

	return domain.Aggregate{
		SchemaVersion: domain.SchemaVersion,
		Departments:   []domain.Department{civil, finance},
		Categories:    []domain.Category{intake, complaints, budget},
		Processes:     []domain.Process{apply, track, plan},
	}
}
