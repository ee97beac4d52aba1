package domain

import "time"

// SchemaVersion is written into every persisted or exported aggregate.
// Blobs without a version are read as version 1.
const SchemaVersion = 1

type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Order       int       `json:"order"`
	Manager     string    `json:"manager,omitempty"`
	Contact     string    `json:"contact,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Category struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	DepartmentID       string    `json:"departmentId"`
	Description        string    `json:"description"`
	BusinessDefinition string    `json:"businessDefinition,omitempty"`
	LegalBasis         string    `json:"legalBasis,omitempty"`
	Order              int       `json:"order"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type Process struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CategoryID  string    `json:"categoryId"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Steps       []Step    `json:"steps"`
	LegalBasis  []string  `json:"legalBasis"`
	Outputs     []string  `json:"outputs"`
	References  []string  `json:"references"`
	Tags        []string  `json:"tags"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Step struct {
	StepNumber  int    `json:"stepNumber"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Details     string `json:"details,omitempty"`
}

// Aggregate is the complete catalog persisted as one unit.
type Aggregate struct {
	SchemaVersion int          `json:"schemaVersion,omitempty"`
	Departments   []Department `json:"departments"`
	Categories    []Category   `json:"categories"`
	Processes     []Process    `json:"processes"`
}

// Export is the downloadable interchange document.
type Export struct {
	Aggregate
	ExportedAt time.Time `json:"exportedAt"`
}

// Stats holds entity counts for a catalog.
type Stats struct {
	Departments int `json:"departments"`
	Categories  int `json:"categories"`
	Processes   int `json:"processes"`
}

// Stats returns the entity counts of the aggregate.
func (a Aggregate) Stats() Stats {
	return Stats{
		Departments: len(a.Departments),
		Categories:  len(a.Categories),
		Processes:   len(a.Processes),
	}
}

// Clone returns a deep copy. The copy never shares backing arrays with a.
func (a Aggregate) Clone() Aggregate {
	out := Aggregate{
		SchemaVersion: a.SchemaVersion,
		Departments:   make([]Department, len(a.Departments)),
		Categories:    make([]Category, len(a.Categories)),
		Processes:     make([]Process, len(a.Processes)),
	}
	copy(out.Departments, a.Departments)
	copy(out.Categories, a.Categories)
	for i, p := range a.Processes {
		out.Processes[i] = p.Clone()
	}
	return out
}

// Clone returns a copy of p with its own slices.
func (p Process) Clone() Process {
	p.Steps = cloneSlice(p.Steps)
	p.LegalBasis = cloneSlice(p.LegalBasis)
	p.Outputs = cloneSlice(p.Outputs)
	p.References = cloneSlice(p.References)
	p.Tags = cloneSlice(p.Tags)
	return p
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
