package importer

import (
	"time"
)

// Shape identifies which interchange layout a document uses.
type Shape int

const (
	// ShapeStandard is {departments, categories, processes}, the persisted layout.
	ShapeStandard Shape = iota + 1
	// ShapeTabular is an array of records keyed by Korean stage labels.
	ShapeTabular
)

func (s Shape) String() string {
	switch s {
	case ShapeStandard:
		return "standard"
	case ShapeTabular:
		return "tabular"
	default:
		return "unknown"
	}
}

// StandardDocument is the standard interchange shape. Optional fields are
// pointers so conversion can tell "absent" from zero.
type StandardDocument struct {
	SchemaVersion int                  `json:"schemaVersion,omitempty"`
	Departments   []StandardDepartment `json:"departments"`
	Categories    []StandardCategory   `json:"categories"`
	Processes     []StandardProcess    `json:"processes"`
	ExportedAt    *time.Time           `json:"exportedAt,omitempty"`
}

type StandardDepartment struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Order       *int       `json:"order,omitempty"`
	Manager     string     `json:"manager,omitempty"`
	Contact     string     `json:"contact,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

type StandardCategory struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	DepartmentID       string     `json:"departmentId"`
	Description        string     `json:"description"`
	BusinessDefinition string     `json:"businessDefinition,omitempty"`
	LegalBasis         string     `json:"legalBasis,omitempty"`
	Order              *int       `json:"order,omitempty"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

type StandardProcess struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	CategoryID  string         `json:"categoryId"`
	Description string         `json:"description"`
	Content     string         `json:"content"`
	Steps       []StandardStep `json:"steps"`
	LegalBasis  []string       `json:"legalBasis"`
	Outputs     []string       `json:"outputs"`
	References  []string       `json:"references"`
	Tags        []string       `json:"tags"`
	Order       *int           `json:"order,omitempty"`
	CreatedAt   *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
}

type StandardStep struct {
	StepNumber  int    `json:"stepNumber"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Details     string `json:"details,omitempty"`
}

// TabularRecord is one row of the tabular shape: a department/category pair
// with the processes filed under it.
type TabularRecord struct {
	Department string            `json:"1단계"`
	Category   string            `json:"2단계"`
	Definition TabularDefinition `json:"3단계"`
	Processes  []TabularProcess  `json:"4단계"`
}

// TabularDefinition carries the category metadata of a record.
type TabularDefinition struct {
	LegalBasis         []string `json:"법적근거"`
	BusinessDefinition string   `json:"업무정의"`
}

type TabularProcess struct {
	Title  string        `json:"프로세스"`
	Detail TabularDetail `json:"5단계"`
}

type TabularDetail struct {
	Description string   `json:"단계설명"`
	MainContent []string `json:"주요내용"`
	Outputs     []string `json:"산출물"`
	References  []string `json:"참고자료"`
}

// Document is the result of decoding either interchange shape. Exactly one
// of Standard or Tabular is populated, as named by Shape.
type Document struct {
	Shape    Shape
	Standard *StandardDocument
	Tabular  []TabularRecord
}
