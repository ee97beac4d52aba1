package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a rendered tree.
type TreeItem struct {
	Title string
	Level int
	// Ancestors records, per level above this one, whether that ancestor was
	// the last of its siblings. It decides where vertical pipes continue.
	Ancestors []bool
	IsLast    bool
	Detail    string
	Style     lipgloss.Style
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree draws items with box-drawing connectors and right-aligns their
// detail badges.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	widest := 0
	for i, item := range items {
		var prefix strings.Builder
		if item.Level > 0 {
			for _, last := range item.Ancestors {
				if last {
					prefix.WriteString(treeBlank)
				} else {
					prefix.WriteString(treePipe)
				}
			}
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}
		contents[i] = Dim(prefix.String()) + item.Style.Render(item.Title)
		widest = max(widest, lipgloss.Width(contents[i]))
	}

	var b strings.Builder
	for i, item := range items {
		b.WriteString(contents[i])
		if item.Detail != "" {
			pad := widest - lipgloss.Width(contents[i])
			b.WriteString(strings.Repeat(" ", pad) + "  " + StyleTag.Render(fmt.Sprintf("[ %s ]", item.Detail)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// CatalogTreeItems flattens the catalog tree into renderable lines. Process
// lines are omitted when withProcesses is false.
func CatalogTreeItems(tree []domain.DepartmentNode, withProcesses bool) []TreeItem {
	var items []TreeItem
	for di, d := range tree {
		deptLast := di == len(tree)-1
		items = append(items, TreeItem{
			Title:  d.Name,
			Level:  1,
			IsLast: deptLast,
			Detail: plural(len(d.Categories), "category", "categories"),
			Style:  StyleHeading,
		})
		for ci, c := range d.Categories {
			catLast := ci == len(d.Categories)-1
			items = append(items, TreeItem{
				Title:     c.Name,
				Level:     2,
				Ancestors: []bool{deptLast},
				IsLast:    catLast,
				Detail:    plural(len(c.Processes), "process", "processes"),
				Style:     StyleCategory,
			})
			if !withProcesses {
				continue
			}
			for pi, p := range c.Processes {
				items = append(items, TreeItem{
					Title:     p.Title,
					Level:     3,
					Ancestors: []bool{deptLast, catLast},
					IsLast:    pi == len(c.Processes)-1,
					Style:     StyleText,
				})
			}
		}
	}
	return items
}

// FormatCatalogTree renders the whole catalog under a header.
func FormatCatalogTree(tree []domain.DepartmentNode, withProcesses bool) string {
	if len(tree) == 0 {
		return Dim("The catalog is empty.") + "\n"
	}
	return Header("Handbook") + "\n" + RenderTree(CatalogTreeItems(tree, withProcesses))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
