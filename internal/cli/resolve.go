package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/handbook/internal/domain"
)

// resolveID matches input against ids: an exact id first, then a unique
// prefix, then a unique suffix (the short form listings print).
func resolveID(kind, input string, ids []string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%s ID is required", kind)
	}

	for _, id := range ids {
		if id == input {
			return id, nil
		}
	}

	for _, match := range []func(s, affix string) bool{strings.HasPrefix, strings.HasSuffix} {
		var matches []string
		for _, id := range ids {
			if match(id, input) {
				matches = append(matches, id)
			}
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return "", fmt.Errorf("%s ID %q is ambiguous (%d matches)", kind, input, len(matches))
		}
	}
	return "", fmt.Errorf("%s %q: %w", kind, input, domain.ErrNotFound)
}

func resolveDepartmentID(app *App, input string) (string, error) {
	agg, err := app.Catalog.Snapshot()
	if err != nil {
		return "", err
	}
	ids := make([]string, len(agg.Departments))
	for i, d := range agg.Departments {
		ids[i] = d.ID
	}
	return resolveID("department", input, ids)
}

func resolveCategoryID(app *App, input string) (string, error) {
	agg, err := app.Catalog.Snapshot()
	if err != nil {
		return "", err
	}
	ids := make([]string, len(agg.Categories))
	for i, c := range agg.Categories {
		ids[i] = c.ID
	}
	return resolveID("category", input, ids)
}

func resolveProcessID(app *App, input string) (string, error) {
	agg, err := app.Catalog.Snapshot()
	if err != nil {
		return "", err
	}
	ids := make([]string, len(agg.Processes))
	for i, p := range agg.Processes {
		ids[i] = p.ID
	}
	return resolveID("process", input, ids)
}
