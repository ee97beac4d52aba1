package importer

import (
	"strings"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
)

// ConvertStandard transforms a validated standard document into an aggregate.
// Missing orders fall back to the entity's index among its siblings and
// missing timestamps to now. Call ValidateStandard first.
func ConvertStandard(doc *StandardDocument, now time.Time) domain.Aggregate {
	agg := domain.Aggregate{
		SchemaVersion: domain.SchemaVersion,
		Departments:   make([]domain.Department, 0, len(doc.Departments)),
		Categories:    make([]domain.Category, 0, len(doc.Categories)),
		Processes:     make([]domain.Process, 0, len(doc.Processes)),
	}

	for i, d := range doc.Departments {
		created, updated := timestamps(d.CreatedAt, d.UpdatedAt, now)
		agg.Departments = append(agg.Departments, domain.Department{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Order:       domain.OrderOr(d.Order, i),
			Manager:     d.Manager,
			Contact:     d.Contact,
			CreatedAt:   created,
			UpdatedAt:   updated,
		})
	}

	catSiblings := make(map[string]int)
	for _, c := range doc.Categories {
		idx := catSiblings[c.DepartmentID]
		catSiblings[c.DepartmentID]++
		created, updated := timestamps(c.CreatedAt, c.UpdatedAt, now)
		agg.Categories = append(agg.Categories, domain.Category{
			ID:                 c.ID,
			Name:               c.Name,
			DepartmentID:       c.DepartmentID,
			Description:        c.Description,
			BusinessDefinition: c.BusinessDefinition,
			LegalBasis:         c.LegalBasis,
			Order:              domain.OrderOr(c.Order, idx),
			CreatedAt:          created,
			UpdatedAt:          updated,
		})
	}

	procSiblings := make(map[string]int)
	for _, p := range doc.Processes {
		idx := procSiblings[p.CategoryID]
		procSiblings[p.CategoryID]++
		created, updated := timestamps(p.CreatedAt, p.UpdatedAt, now)
		steps := make([]domain.Step, 0, len(p.Steps))
		for _, s := range p.Steps {
			steps = append(steps, domain.Step(s))
		}
		agg.Processes = append(agg.Processes, domain.Process{
			ID:          p.ID,
			Title:       p.Title,
			CategoryID:  p.CategoryID,
			Description: p.Description,
			Content:     p.Content,
			Steps:       steps,
			LegalBasis:  copyStrings(p.LegalBasis),
			Outputs:     copyStrings(p.Outputs),
			References:  copyStrings(p.References),
			Tags:        copyStrings(p.Tags),
			Order:       domain.OrderOr(p.Order, idx),
			CreatedAt:   created,
			UpdatedAt:   updated,
		})
	}

	return agg
}

// ConvertTabular groups tabular records by department name, then category
// name, synthesizing one department and category per distinct name and one
// process per 4단계 entry. The first record of a category supplies its
// metadata. Apart from calling newID the conversion is pure.
func ConvertTabular(records []TabularRecord, now time.Time, newID func() string) domain.Aggregate {
	agg := domain.Aggregate{
		SchemaVersion: domain.SchemaVersion,
		Departments:   []domain.Department{},
		Categories:    []domain.Category{},
		Processes:     []domain.Process{},
	}

	type categoryKey struct{ dept, cat string }
	deptIndex := make(map[string]int)     // name -> index in agg.Departments
	catIndex := make(map[categoryKey]int) // names -> index in agg.Categories
	catLegal := make(map[int][]string)    // category index -> 법적근거 of its first record
	catsPerDept := make(map[string]int)   // department id -> category count
	procsPerCat := make(map[string]int)   // category id -> process count

	for _, r := range records {
		deptName := strings.TrimSpace(r.Department)
		catName := strings.TrimSpace(r.Category)

		di, ok := deptIndex[deptName]
		if !ok {
			di = len(agg.Departments)
			deptIndex[deptName] = di
			agg.Departments = append(agg.Departments, domain.Department{
				ID:        newID(),
				Name:      deptName,
				Order:     di,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		dept := agg.Departments[di]

		key := categoryKey{dept: deptName, cat: catName}
		ci, ok := catIndex[key]
		if !ok {
			ci = len(agg.Categories)
			catIndex[key] = ci
			definition := strings.TrimSpace(r.Definition.BusinessDefinition)
			agg.Categories = append(agg.Categories, domain.Category{
				ID:                 newID(),
				Name:               catName,
				DepartmentID:       dept.ID,
				Description:        definition,
				BusinessDefinition: definition,
				LegalBasis:         strings.Join(r.Definition.LegalBasis, ", "),
				Order:              catsPerDept[dept.ID],
				CreatedAt:          now,
				UpdatedAt:          now,
			})
			catLegal[ci] = copyStrings(r.Definition.LegalBasis)
			catsPerDept[dept.ID]++
		}
		cat := agg.Categories[ci]
		legalBasis := catLegal[ci]

		for _, tp := range r.Processes {
			agg.Processes = append(agg.Processes, domain.Process{
				ID:          newID(),
				Title:       strings.TrimSpace(tp.Title),
				CategoryID:  cat.ID,
				Description: tp.Detail.Description,
				Content:     strings.Join(tp.Detail.MainContent, "\n"),
				Steps:       stepsFromContent(tp.Detail.MainContent),
				LegalBasis:  copyStrings(legalBasis),
				Outputs:     copyStrings(tp.Detail.Outputs),
				References:  copyStrings(tp.Detail.References),
				Tags:        []string{dept.Name, cat.Name},
				Order:       procsPerCat[cat.ID],
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			procsPerCat[cat.ID]++
		}
	}

	return agg
}

func stepsFromContent(items []string) []domain.Step {
	steps := make([]domain.Step, 0, len(items))
	for i, item := range items {
		steps = append(steps, domain.Step{StepNumber: i + 1, Title: item})
	}
	return steps
}

func timestamps(created, updated *time.Time, now time.Time) (time.Time, time.Time) {
	c := now
	if created != nil && !created.IsZero() {
		c = *created
	}
	u := c
	if updated != nil && !updated.IsZero() {
		u = *updated
	}
	if u.Before(c) {
		u = c
	}
	return c, u
}

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
