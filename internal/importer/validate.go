package importer

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/handbook/internal/domain"
)

// entityRef is the part of an entity that integrity checks care about.
type entityRef struct {
	id     string
	parent string
	name   string
}

// ValidateStandard checks a standard document before conversion.
// Returns a slice of all validation errors found.
func ValidateStandard(doc *StandardDocument) []error {
	var errs []error
	if doc.SchemaVersion > domain.SchemaVersion {
		errs = append(errs, fmt.Errorf("schemaVersion %d is newer than supported version %d", doc.SchemaVersion, domain.SchemaVersion))
	}

	depts := make([]entityRef, len(doc.Departments))
	for i, d := range doc.Departments {
		depts[i] = entityRef{id: d.ID, name: d.Name}
	}
	cats := make([]entityRef, len(doc.Categories))
	for i, c := range doc.Categories {
		cats[i] = entityRef{id: c.ID, parent: c.DepartmentID, name: c.Name}
	}
	procs := make([]entityRef, len(doc.Processes))
	for i, p := range doc.Processes {
		procs[i] = entityRef{id: p.ID, parent: p.CategoryID, name: p.Title}
	}

	return append(errs, validateRefs(depts, cats, procs)...)
}

// ValidateAggregate checks the structure and referential integrity of an
// aggregate already in domain form.
func ValidateAggregate(agg domain.Aggregate) []error {
	var errs []error
	if agg.SchemaVersion > domain.SchemaVersion {
		errs = append(errs, fmt.Errorf("schemaVersion %d is newer than supported version %d", agg.SchemaVersion, domain.SchemaVersion))
	}

	depts := make([]entityRef, len(agg.Departments))
	for i, d := range agg.Departments {
		depts[i] = entityRef{id: d.ID, name: d.Name}
	}
	cats := make([]entityRef, len(agg.Categories))
	for i, c := range agg.Categories {
		cats[i] = entityRef{id: c.ID, parent: c.DepartmentID, name: c.Name}
	}
	procs := make([]entityRef, len(agg.Processes))
	for i, p := range agg.Processes {
		procs[i] = entityRef{id: p.ID, parent: p.CategoryID, name: p.Title}
	}

	return append(errs, validateRefs(depts, cats, procs)...)
}

func validateRefs(depts, cats, procs []entityRef) []error {
	var errs []error

	deptIDs := make(map[string]bool, len(depts))
	errs = append(errs, validateEntities("departments", "name", depts, deptIDs)...)

	catIDs := make(map[string]bool, len(cats))
	errs = append(errs, validateEntities("categories", "name", cats, catIDs)...)
	for i, c := range cats {
		if !deptIDs[c.parent] {
			errs = append(errs, fmt.Errorf("categories[%d].departmentId %q does not reference an existing department", i, c.parent))
		}
	}

	procIDs := make(map[string]bool, len(procs))
	errs = append(errs, validateEntities("processes", "title", procs, procIDs)...)
	for i, p := range procs {
		if !catIDs[p.parent] {
			errs = append(errs, fmt.Errorf("processes[%d].categoryId %q does not reference an existing category", i, p.parent))
		}
	}

	return errs
}

func validateEntities(collection, nameField string, refs []entityRef, seen map[string]bool) []error {
	var errs []error
	for i, r := range refs {
		if strings.TrimSpace(r.id) == "" {
			errs = append(errs, fmt.Errorf("%s[%d].id is required", collection, i))
		} else if seen[r.id] {
			errs = append(errs, fmt.Errorf("%s[%d].id %q is duplicated", collection, i, r.id))
		}
		seen[r.id] = true
		if strings.TrimSpace(r.name) == "" {
			errs = append(errs, fmt.Errorf("%s[%d].%s is required", collection, i, nameField))
		}
	}
	return errs
}

// ValidateTabular checks tabular records before conversion.
func ValidateTabular(records []TabularRecord) []error {
	var errs []error
	for i, r := range records {
		if strings.TrimSpace(r.Department) == "" {
			errs = append(errs, fmt.Errorf("record[%d].1단계 (department) is required", i))
		}
		if strings.TrimSpace(r.Category) == "" {
			errs = append(errs, fmt.Errorf("record[%d].2단계 (category) is required", i))
		}
		for j, p := range r.Processes {
			if strings.TrimSpace(p.Title) == "" {
				errs = append(errs, fmt.Errorf("record[%d].4단계[%d].프로세스 (process title) is required", i, j))
			}
		}
	}
	return errs
}
