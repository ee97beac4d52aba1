package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/alexanderramin/handbook/internal/repository"
)

func FormatDepartmentList(depts []domain.Department) string {
	rows := make([][]string, 0, len(depts))
	for _, d := range depts {
		rows = append(rows, []string{
			Dim(ShortID(d.ID)),
			strconv.Itoa(d.Order),
			Bold(d.Name),
			d.Manager,
			Truncate(d.Description, 40),
		})
	}
	return RenderTable([]string{"ID", "ORDER", "NAME", "MANAGER", "DESCRIPTION"}, rows)
}

func FormatCategoryList(cats []domain.Category) string {
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{
			Dim(ShortID(c.ID)),
			strconv.Itoa(c.Order),
			Bold(c.Name),
			Truncate(c.LegalBasis, 24),
			Truncate(c.Description, 40),
		})
	}
	return RenderTable([]string{"ID", "ORDER", "NAME", "LEGAL BASIS", "DESCRIPTION"}, rows)
}

func FormatProcessList(procs []domain.Process) string {
	rows := make([][]string, 0, len(procs))
	for _, p := range procs {
		rows = append(rows, []string{
			Dim(ShortID(p.ID)),
			strconv.Itoa(p.Order),
			Bold(p.Title),
			strconv.Itoa(len(p.Steps)),
			Truncate(strings.Join(p.Tags, ", "), 24),
		})
	}
	return RenderTable([]string{"ID", "ORDER", "TITLE", "STEPS", "TAGS"}, rows)
}

// FormatProcessDetail renders every field of a process; path is the
// "Department > Category" trail shown above it.
func FormatProcessDetail(p domain.Process, path string) string {
	var b strings.Builder
	if path != "" {
		b.WriteString(Dim(path) + "\n")
	}
	b.WriteString(Bold(p.Title) + " " + Dim("("+p.ID+")") + "\n")
	if p.Description != "" {
		b.WriteString("\n" + p.Description + "\n")
	}

	if len(p.Steps) > 0 {
		b.WriteString("\n" + Header("Steps") + "\n")
		for _, s := range p.Steps {
			b.WriteString(fmt.Sprintf("%s %s\n", StyleAccent.Render(fmt.Sprintf("%2d.", s.StepNumber)), s.Title))
			if s.Description != "" {
				b.WriteString("    " + s.Description + "\n")
			}
			if s.Details != "" {
				b.WriteString("    " + Dim(s.Details) + "\n")
			}
		}
	} else if p.Content != "" {
		b.WriteString("\n" + Header("Content") + "\n" + p.Content + "\n")
	}

	writeList := func(title string, values []string) {
		if len(values) == 0 {
			return
		}
		b.WriteString("\n" + Header(title) + "\n")
		for _, v := range values {
			b.WriteString("  • " + v + "\n")
		}
	}
	writeList("Legal basis", p.LegalBasis)
	writeList("Outputs", p.Outputs)
	writeList("References", p.References)

	if len(p.Tags) > 0 {
		tags := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			tags[i] = StyleTag.Render("#" + t)
		}
		b.WriteString("\n" + strings.Join(tags, " ") + "\n")
	}
	b.WriteString("\n" + Dim(fmt.Sprintf("created %s · updated %s",
		p.CreatedAt.Local().Format(time.DateTime), p.UpdatedAt.Local().Format(time.DateTime))) + "\n")
	return b.String()
}

func FormatSearchResults(query string, results []domain.SearchResult) string {
	if len(results) == 0 {
		return Dim(fmt.Sprintf("No matches for %q.", query)) + "\n"
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			ScoreStyle(r.Score).Render(strconv.Itoa(r.Score)),
			KindBadge(r.Type),
			Bold(r.Title),
			Dim(r.Path),
		})
	}
	return RenderTable([]string{"SCORE", "TYPE", "TITLE", "PATH"}, rows)
}

// FormatDeleteResult summarizes what a delete removed, cascade included.
func FormatDeleteResult(res domain.DeleteResult) string {
	var parts []string
	if res.Departments > 0 {
		parts = append(parts, plural(res.Departments, "department", "departments"))
	}
	if res.Categories > 0 {
		parts = append(parts, plural(res.Categories, "category", "categories"))
	}
	if res.Processes > 0 {
		parts = append(parts, plural(res.Processes, "process", "processes"))
	}
	if len(parts) == 0 {
		return "Removed nothing"
	}
	return "Removed " + strings.Join(parts, ", ")
}

func FormatStats(st domain.Stats) string {
	return fmt.Sprintf("%s · %s · %s",
		plural(st.Departments, "department", "departments"),
		plural(st.Categories, "category", "categories"),
		plural(st.Processes, "process", "processes"))
}

func FormatHistory(revs []repository.RevisionInfo, now time.Time) string {
	if len(revs) == 0 {
		return Dim("No stored revisions.") + "\n"
	}
	rows := make([][]string, 0, len(revs))
	for _, r := range revs {
		rows = append(rows, []string{
			StyleAccent.Render(strconv.FormatInt(r.Revision, 10)),
			Bytes(r.Size),
			HumanTimestamp(r.CreatedAt, now),
		})
	}
	return RenderTable([]string{"REVISION", "SIZE", "SAVED"}, rows)
}
