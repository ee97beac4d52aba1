package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
)

// The functions below compute the next aggregate from a private copy of the
// current one. They never perform I/O; the Store persists and publishes the
// result.

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError([]error{fmt.Errorf("%s is required", field)})
	}
	return nil
}

// touch returns now, or prev when the clock has moved backwards.
func touch(prev, now time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}

func indexOfDepartment(agg domain.Aggregate, id string) int {
	for i := range agg.Departments {
		if agg.Departments[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfCategory(agg domain.Aggregate, id string) int {
	for i := range agg.Categories {
		if agg.Categories[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfProcess(agg domain.Aggregate, id string) int {
	for i := range agg.Processes {
		if agg.Processes[i].ID == id {
			return i
		}
	}
	return -1
}

func countCategories(agg domain.Aggregate, deptID string) int {
	n := 0
	for _, c := range agg.Categories {
		if c.DepartmentID == deptID {
			n++
		}
	}
	return n
}

func countProcesses(agg domain.Aggregate, catID string) int {
	n := 0
	for _, p := range agg.Processes {
		if p.CategoryID == catID {
			n++
		}
	}
	return n
}

func addDepartment(agg domain.Aggregate, in domain.DepartmentInput, id string, now time.Time) (domain.Aggregate, domain.Department, error) {
	if err := requireText("name", in.Name); err != nil {
		return agg, domain.Department{}, err
	}
	d := domain.Department{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Order:       domain.OrderOr(in.Order, len(agg.Departments)),
		Manager:     in.Manager,
		Contact:     in.Contact,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	agg.Departments = append(agg.Departments, d)
	return agg, d, nil
}

func updateDepartment(agg domain.Aggregate, id string, patch domain.DepartmentPatch, now time.Time) (domain.Aggregate, domain.Department, error) {
	i := indexOfDepartment(agg, id)
	if i < 0 {
		return agg, domain.Department{}, domain.NotFoundError("department", id)
	}
	d := agg.Departments[i]
	if patch.Name != nil {
		if err := requireText("name", *patch.Name); err != nil {
			return agg, domain.Department{}, err
		}
		d.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.Order != nil {
		d.Order = *patch.Order
	}
	if patch.Manager != nil {
		d.Manager = *patch.Manager
	}
	if patch.Contact != nil {
		d.Contact = *patch.Contact
	}
	d.UpdatedAt = touch(d.UpdatedAt, now)
	agg.Departments[i] = d
	return agg, d, nil
}

// deleteDepartment removes the department, its categories and their
// processes in one step.
func deleteDepartment(agg domain.Aggregate, id string) (domain.Aggregate, domain.DeleteResult, error) {
	if indexOfDepartment(agg, id) < 0 {
		return agg, domain.DeleteResult{}, domain.NotFoundError("department", id)
	}
	var res domain.DeleteResult

	depts := agg.Departments[:0]
	for _, d := range agg.Departments {
		if d.ID == id {
			res.Departments++
			continue
		}
		depts = append(depts, d)
	}

	removedCats := make(map[string]bool)
	cats := agg.Categories[:0]
	for _, c := range agg.Categories {
		if c.DepartmentID == id {
			removedCats[c.ID] = true
			res.Categories++
			continue
		}
		cats = append(cats, c)
	}

	procs := agg.Processes[:0]
	for _, p := range agg.Processes {
		if removedCats[p.CategoryID] {
			res.Processes++
			continue
		}
		procs = append(procs, p)
	}

	agg.Departments, agg.Categories, agg.Processes = depts, cats, procs
	return agg, res, nil
}

func addCategory(agg domain.Aggregate, in domain.CategoryInput, id string, now time.Time) (domain.Aggregate, domain.Category, error) {
	if err := requireText("name", in.Name); err != nil {
		return agg, domain.Category{}, err
	}
	if indexOfDepartment(agg, in.DepartmentID) < 0 {
		return agg, domain.Category{}, domain.ReferenceError("departmentId", in.DepartmentID)
	}
	c := domain.Category{
		ID:                 id,
		Name:               strings.TrimSpace(in.Name),
		DepartmentID:       in.DepartmentID,
		Description:        in.Description,
		BusinessDefinition: in.BusinessDefinition,
		LegalBasis:         in.LegalBasis,
		Order:              domain.OrderOr(in.Order, countCategories(agg, in.DepartmentID)),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	agg.Categories = append(agg.Categories, c)
	return agg, c, nil
}

func updateCategory(agg domain.Aggregate, id string, patch domain.CategoryPatch, now time.Time) (domain.Aggregate, domain.Category, error) {
	i := indexOfCategory(agg, id)
	if i < 0 {
		return agg, domain.Category{}, domain.NotFoundError("category", id)
	}
	c := agg.Categories[i]
	if patch.Name != nil {
		if err := requireText("name", *patch.Name); err != nil {
			return agg, domain.Category{}, err
		}
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.DepartmentID != nil {
		if indexOfDepartment(agg, *patch.DepartmentID) < 0 {
			return agg, domain.Category{}, domain.ReferenceError("departmentId", *patch.DepartmentID)
		}
		c.DepartmentID = *patch.DepartmentID
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.BusinessDefinition != nil {
		c.BusinessDefinition = *patch.BusinessDefinition
	}
	if patch.LegalBasis != nil {
		c.LegalBasis = *patch.LegalBasis
	}
	if patch.Order != nil {
		c.Order = *patch.Order
	}
	c.UpdatedAt = touch(c.UpdatedAt, now)
	agg.Categories[i] = c
	return agg, c, nil
}

func deleteCategory(agg domain.Aggregate, id string) (domain.Aggregate, domain.DeleteResult, error) {
	i := indexOfCategory(agg, id)
	if i < 0 {
		return agg, domain.DeleteResult{}, domain.NotFoundError("category", id)
	}
	res := domain.DeleteResult{Categories: 1}
	agg.Categories = append(agg.Categories[:i], agg.Categories[i+1:]...)

	procs := agg.Processes[:0]
	for _, p := range agg.Processes {
		if p.CategoryID == id {
			res.Processes++
			continue
		}
		procs = append(procs, p)
	}
	agg.Processes = procs
	return agg, res, nil
}

func addProcess(agg domain.Aggregate, in domain.ProcessInput, id string, now time.Time) (domain.Aggregate, domain.Process, error) {
	if err := requireText("title", in.Title); err != nil {
		return agg, domain.Process{}, err
	}
	if indexOfCategory(agg, in.CategoryID) < 0 {
		return agg, domain.Process{}, domain.ReferenceError("categoryId", in.CategoryID)
	}
	p := domain.Process{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		CategoryID:  in.CategoryID,
		Description: in.Description,
		Content:     in.Content,
		Steps:       numberSteps(in.Steps),
		LegalBasis:  ownStrings(in.LegalBasis),
		Outputs:     ownStrings(in.Outputs),
		References:  ownStrings(in.References),
		Tags:        ownStrings(in.Tags),
		Order:       domain.OrderOr(in.Order, countProcesses(agg, in.CategoryID)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	agg.Processes = append(agg.Processes, p)
	return agg, p.Clone(), nil
}

func updateProcess(agg domain.Aggregate, id string, patch domain.ProcessPatch, now time.Time) (domain.Aggregate, domain.Process, error) {
	i := indexOfProcess(agg, id)
	if i < 0 {
		return agg, domain.Process{}, domain.NotFoundError("process", id)
	}
	p := agg.Processes[i]
	if patch.Title != nil {
		if err := requireText("title", *patch.Title); err != nil {
			return agg, domain.Process{}, err
		}
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.CategoryID != nil {
		if indexOfCategory(agg, *patch.CategoryID) < 0 {
			return agg, domain.Process{}, domain.ReferenceError("categoryId", *patch.CategoryID)
		}
		p.CategoryID = *patch.CategoryID
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Steps != nil {
		p.Steps = numberSteps(patch.Steps)
	}
	if patch.LegalBasis != nil {
		p.LegalBasis = ownStrings(patch.LegalBasis)
	}
	if patch.Outputs != nil {
		p.Outputs = ownStrings(patch.Outputs)
	}
	if patch.References != nil {
		p.References = ownStrings(patch.References)
	}
	if patch.Tags != nil {
		p.Tags = ownStrings(patch.Tags)
	}
	if patch.Order != nil {
		p.Order = *patch.Order
	}
	p.UpdatedAt = touch(p.UpdatedAt, now)
	agg.Processes[i] = p
	return agg, p.Clone(), nil
}

func deleteProcess(agg domain.Aggregate, id string) (domain.Aggregate, domain.DeleteResult, error) {
	i := indexOfProcess(agg, id)
	if i < 0 {
		return agg, domain.DeleteResult{}, domain.NotFoundError("process", id)
	}
	agg.Processes = append(agg.Processes[:i], agg.Processes[i+1:]...)
	return agg, domain.DeleteResult{Processes: 1}, nil
}

// replaceAll validates an incoming aggregate and returns its normalized form.
func replaceAll(in domain.Aggregate, validate func(domain.Aggregate) []error) (domain.Aggregate, error) {
	if err := domain.NewValidationError(validate(in)); err != nil {
		return domain.Aggregate{}, err
	}
	out := in.Clone()
	out.SchemaVersion = domain.SchemaVersion
	for i := range out.Processes {
		p := &out.Processes[i]
		p.Steps = domain.NonNil(p.Steps)
		p.LegalBasis = domain.NonNil(p.LegalBasis)
		p.Outputs = domain.NonNil(p.Outputs)
		p.References = domain.NonNil(p.References)
		p.Tags = domain.NonNil(p.Tags)
	}
	return out, nil
}

// numberSteps copies steps, filling missing step numbers from their position.
func numberSteps(steps []domain.Step) []domain.Step {
	out := make([]domain.Step, len(steps))
	for i, s := range steps {
		if s.StepNumber <= 0 {
			s.StepNumber = i + 1
		}
		out[i] = s
	}
	return out
}

func ownStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
