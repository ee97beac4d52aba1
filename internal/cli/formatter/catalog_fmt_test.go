package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/alexanderramin/handbook/internal/repository"
	"github.com/alexanderramin/handbook/internal/testutil"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func sampleTree() []domain.DepartmentNode {
	agg := testutil.SampleAggregate()
	civil, finance := agg.Departments[0], agg.Departments[1]
	return []domain.DepartmentNode{
		{Department: civil, Categories: []domain.CategoryNode{
			{Category: agg.Categories[0], Processes: agg.Processes[:2]},
			{Category: agg.Categories[1], Processes: []domain.Process{}},
		}},
		{Department: finance, Categories: []domain.CategoryNode{
			{Category: agg.Categories[2], Processes: agg.Processes[2:]},
		}},
	}
}

func TestFormatCatalogTree(t *testing.T) {
	out := FormatCatalogTree(sampleTree(), true)

	assert.Contains(t, out, "HANDBOOK")
	assert.Contains(t, out, "├─ 민원실")
	assert.Contains(t, out, "└─ 재무과")
	assert.Contains(t, out, "│  ├─ 접수")
	assert.Contains(t, out, "│  │  ├─ 민원신청")
	assert.Contains(t, out, "│  │  └─ 처리 현황 조회")
	assert.Contains(t, out, "   └─ 예산")
	assert.Contains(t, out, "[ 2 categories ]")
	assert.Contains(t, out, "[ 1 process ]")

	collapsed := FormatCatalogTree(sampleTree(), false)
	assert.NotContains(t, collapsed, "민원신청")

	assert.Contains(t, FormatCatalogTree(nil, true), "empty")
}

func TestCatalogTreeItems_Levels(t *testing.T) {
	items := CatalogTreeItems(sampleTree(), true)
	assert.Len(t, items, 2+3+3)
	assert.Equal(t, 1, items[0].Level)
	assert.Equal(t, 2, items[1].Level)
	assert.Equal(t, 3, items[2].Level)
	assert.True(t, items[len(items)-1].IsLast)
}

func TestRenderTable_AlignsWideText(t *testing.T) {
	out := RenderTable([]string{"NAME", "X"}, [][]string{{"민원실", "1"}, {"ab", "2"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	col := func(line string) int { return lipgloss.Width(line[:strings.LastIndex(line, " ")+1]) }
	assert.Equal(t, col(lines[2]), col(lines[3]))
	assert.Empty(t, RenderTable(nil, nil))
}

func TestFormatSearchResults(t *testing.T) {
	out := FormatSearchResults("민원", []domain.SearchResult{
		{Type: domain.ResultProcess, Title: "민원신청", Path: "민원실 > 접수 > 민원신청", Score: 18},
		{Type: domain.ResultCategory, Title: "민원업무", Path: "민원실 > 민원업무", Score: 8},
	})
	assert.Contains(t, out, "18")
	assert.Contains(t, out, "process")
	assert.Contains(t, out, "category")
	assert.Contains(t, out, "민원실 > 접수 > 민원신청")

	assert.Contains(t, FormatSearchResults("zz", nil), `No matches for "zz"`)
}

func TestFormatProcessDetail(t *testing.T) {
	p := testutil.NewTestProcess("c", "민원신청",
		testutil.WithProcessDescription("민원 접수 절차"),
		testutil.WithTags("민원"),
		testutil.WithSteps(domain.Step{StepNumber: 1, Title: "신청서 작성", Description: "양식 작성"}),
	)
	p.Outputs = []string{"접수증"}
	out := FormatProcessDetail(p, "민원실 > 접수")

	assert.Contains(t, out, "민원실 > 접수")
	assert.Contains(t, out, " 1. 신청서 작성")
	assert.Contains(t, out, "양식 작성")
	assert.Contains(t, out, "OUTPUTS")
	assert.Contains(t, out, "• 접수증")
	assert.Contains(t, out, "#민원")
	assert.NotContains(t, out, "REFERENCES")
}

func TestFormatDeleteResult(t *testing.T) {
	assert.Equal(t, "Removed 1 department, 2 categories, 5 processes",
		FormatDeleteResult(domain.DeleteResult{Departments: 1, Categories: 2, Processes: 5}))
	assert.Equal(t, "Removed 1 process", FormatDeleteResult(domain.DeleteResult{Processes: 1}))
	assert.Equal(t, "Removed nothing", FormatDeleteResult(domain.DeleteResult{}))
}

func TestFormatHistory(t *testing.T) {
	now := testutil.Epoch
	out := FormatHistory([]repository.RevisionInfo{
		{Revision: 2, Size: 2048, CreatedAt: now.Add(-5 * time.Minute)},
		{Revision: 1, Size: 10, CreatedAt: now.Add(-3 * time.Hour)},
	}, now)
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "5m ago")
	assert.Contains(t, out, "3h ago")
	assert.Contains(t, FormatHistory(nil, now), "No stored revisions")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "9abcdef0", ShortID("0190f2a1-0000-7000-8000-00009abcdef0"))
	assert.Equal(t, "short", ShortID("short"))
	assert.Equal(t, "민원…", Truncate("민원신청서", 5))
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "1 department · 0 categories · 3 processes",
		FormatStats(domain.Stats{Departments: 1, Processes: 3}))
}
