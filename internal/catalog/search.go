package catalog

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/alexanderramin/handbook/internal/domain"
	"golang.org/x/text/cases"
)

// MinQueryLength is the shortest trimmed query, in characters, that is searched.
const MinQueryLength = 2

const pathSeparator = " > "

// search scores every process and category of agg against query. Processes
// sum the weights of each matching field; a category match is flat.
// Processes precede categories before the stable sort by score, so equal
// scores keep that order.
func search(agg domain.Aggregate, query string) []domain.SearchResult {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []domain.SearchResult{}
	}

	// A Caser holds state and must not be shared between goroutines.
	fold := cases.Fold()
	needle := fold.String(query)
	has := func(s string) bool {
		return s != "" && strings.Contains(fold.String(s), needle)
	}

	deptNames := make(map[string]string, len(agg.Departments))
	for _, d := range agg.Departments {
		deptNames[d.ID] = d.Name
	}
	catPaths := make(map[string]string, len(agg.Categories))
	for _, c := range agg.Categories {
		catPaths[c.ID] = joinPath(deptNames[c.DepartmentID], c.Name)
	}

	results := []domain.SearchResult{}
	for _, p := range agg.Processes {
		score := 0
		if has(p.Title) {
			score += domain.ScoreProcessTitle
		}
		if has(p.Description) {
			score += domain.ScoreProcessDescription
		}
		if slices.ContainsFunc(p.Tags, has) {
			score += domain.ScoreProcessTag
		}
		if slices.ContainsFunc(p.Steps, func(st domain.Step) bool { return has(st.Title) || has(st.Description) }) {
			score += domain.ScoreProcessStep
		}
		if score == 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			Type:        domain.ResultProcess,
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Path:        joinPath(catPaths[p.CategoryID], p.Title),
			Score:       score,
		})
	}

	for _, c := range agg.Categories {
		if !has(c.Name) && !has(c.Description) {
			continue
		}
		results = append(results, domain.SearchResult{
			Type:        domain.ResultCategory,
			ID:          c.ID,
			Title:       c.Name,
			Description: c.Description,
			Path:        catPaths[c.ID],
			Score:       domain.ScoreCategory,
		})
	}

	slices.SortStableFunc(results, func(a, b domain.SearchResult) int {
		return b.Score - a.Score
	})
	return results
}

func joinPath(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, pathSeparator)
}
