package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/handbook/internal/cli/formatter"
	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newBrowseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Explore the catalog in an interactive tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Interactive {
				return errors.New("browse needs an interactive terminal; use 'handbook tree' instead")
			}
			tree, err := app.Catalog.Tree()
			if err != nil {
				return err
			}
			p := tea.NewProgram(newBrowseModel(tree),
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
				tea.WithContext(cmd.Context()),
			)
			_, err = p.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}

type browseKind int

const (
	browseDepartment browseKind = iota
	browseCategory
	browseProcess
)

// browseRow is one visible line of the tree pane. Indexes point into the
// model's tree.
type browseRow struct {
	kind  browseKind
	id    string
	title string
	dept  int
	cat   int
	proc  int
}

type browseKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Expand   key.Binding
	Collapse key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

func defaultBrowseKeys() browseKeyMap {
	return browseKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle")),
		Expand:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Collapse: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll down")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.PageDown, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Expand, k.Collapse},
		{k.PageUp, k.PageDown, k.Quit},
	}
}

// browseModel shows the catalog as a collapsible tree beside a scrollable
// detail pane for the selected entry.
type browseModel struct {
	tree     []domain.DepartmentNode
	expanded map[string]bool
	rows     []browseRow
	cursor   int

	detail viewport.Model
	help   help.Model
	keys   browseKeyMap

	width    int
	height   int
	quitting bool
}

const (
	browseMinTreeWidth = 24
	browseChrome       = 2 // help line plus spacing
)

func newBrowseModel(tree []domain.DepartmentNode) browseModel {
	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u")),
	}
	vp.MouseWheelEnabled = true

	m := browseModel{
		tree:     tree,
		expanded: map[string]bool{},
		detail:   vp,
		help:     help.New(),
		keys:     defaultBrowseKeys(),
	}
	m.rebuild()
	m.refreshDetail()
	return m
}

// rebuild recomputes the visible rows from the expansion state, keeping the
// cursor on the same entry when it is still visible.
func (m *browseModel) rebuild() {
	var current string
	if row, ok := m.selected(); ok {
		current = row.id
	}

	m.rows = nil
	for di, d := range m.tree {
		m.rows = append(m.rows, browseRow{kind: browseDepartment, id: d.ID, title: d.Name, dept: di, cat: -1, proc: -1})
		if !m.expanded[d.ID] {
			continue
		}
		for ci, c := range d.Categories {
			m.rows = append(m.rows, browseRow{kind: browseCategory, id: c.ID, title: c.Name, dept: di, cat: ci, proc: -1})
			if !m.expanded[c.ID] {
				continue
			}
			for pi, p := range c.Processes {
				m.rows = append(m.rows, browseRow{kind: browseProcess, id: p.ID, title: p.Title, dept: di, cat: ci, proc: pi})
			}
		}
	}

	for i, row := range m.rows {
		if row.id == current {
			m.cursor = i
			return
		}
	}
	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
}

func (m browseModel) selected() (browseRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return browseRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.detail.Width = max(msg.Width-m.treeWidth()-3, 10)
		m.detail.Height = max(msg.Height-browseChrome, 1)
		m.refreshDetail()
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.move(-1)
		case key.Matches(msg, m.keys.Down):
			m.move(1)
		case key.Matches(msg, m.keys.Toggle):
			if row, ok := m.selected(); ok && row.kind != browseProcess {
				m.setExpanded(row.id, !m.expanded[row.id])
			}
		case key.Matches(msg, m.keys.Expand):
			if row, ok := m.selected(); ok && row.kind != browseProcess {
				m.setExpanded(row.id, true)
			}
		case key.Matches(msg, m.keys.Collapse):
			m.collapse()
		default:
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *browseModel) move(delta int) {
	next := m.cursor + delta
	if next < 0 || next >= len(m.rows) {
		return
	}
	m.cursor = next
	m.refreshDetail()
}

func (m *browseModel) setExpanded(id string, open bool) {
	m.expanded[id] = open
	m.rebuild()
	m.refreshDetail()
}

// collapse closes the selected node, or jumps to its parent when it is a
// leaf or already closed.
func (m *browseModel) collapse() {
	row, ok := m.selected()
	if !ok {
		return
	}
	if row.kind != browseProcess && m.expanded[row.id] {
		m.setExpanded(row.id, false)
		return
	}
	var parent string
	switch row.kind {
	case browseCategory:
		parent = m.tree[row.dept].ID
	case browseProcess:
		parent = m.tree[row.dept].Categories[row.cat].ID
	default:
		return
	}
	for i, r := range m.rows {
		if r.id == parent {
			m.cursor = i
			m.refreshDetail()
			return
		}
	}
}

func (m *browseModel) refreshDetail() {
	m.detail.SetContent(m.detailContent())
	m.detail.GotoTop()
}

func (m browseModel) detailContent() string {
	row, ok := m.selected()
	if !ok {
		return formatter.Dim("The catalog is empty.")
	}
	d := m.tree[row.dept]
	var b strings.Builder
	switch row.kind {
	case browseDepartment:
		b.WriteString(formatter.Header(d.Name) + "\n")
		writeField(&b, "Description", d.Description)
		writeField(&b, "Manager", d.Manager)
		writeField(&b, "Contact", d.Contact)
		processes := 0
		for _, c := range d.Categories {
			processes += len(c.Processes)
		}
		b.WriteString("\n" + formatter.FormatStats(domain.Stats{Departments: 1, Categories: len(d.Categories), Processes: processes}) + "\n")
	case browseCategory:
		c := d.Categories[row.cat]
		b.WriteString(formatter.Dim(d.Name) + "\n")
		b.WriteString(formatter.Header(c.Name) + "\n")
		writeField(&b, "Description", c.Description)
		writeField(&b, "Definition", c.BusinessDefinition)
		writeField(&b, "Legal basis", c.LegalBasis)
		b.WriteString("\n")
		if len(c.Processes) == 0 {
			b.WriteString(formatter.Dim("No processes.") + "\n")
		}
		for _, p := range c.Processes {
			b.WriteString("  • " + p.Title + "\n")
		}
	case browseProcess:
		c := d.Categories[row.cat]
		b.WriteString(formatter.FormatProcessDetail(c.Processes[row.proc], d.Name+" > "+c.Name))
	}
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s %s\n", formatter.Bold(label+":"), value)
}

func (m browseModel) treeWidth() int {
	return max(m.width/3, browseMinTreeWidth)
}

func (m browseModel) View() string {
	if m.quitting {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, m.treeView(), " │ ", m.detail.View()),
		m.help.View(m.keys),
	)
}

// visibleRange returns the window of rows that fits the pane and contains
// the cursor.
func (m browseModel) visibleRange() (int, int) {
	height := len(m.rows)
	if m.height > browseChrome {
		height = m.height - browseChrome
	}
	from := 0
	if m.cursor >= height {
		from = m.cursor - height + 1
	}
	return from, min(from+height, len(m.rows))
}

func (m browseModel) treeView() string {
	if len(m.rows) == 0 {
		return formatter.Dim("(empty)")
	}
	width := m.treeWidth()
	from, to := m.visibleRange()

	lines := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		row := m.rows[i]
		marker := "  "
		if row.kind != browseProcess {
			marker = "▸ "
			if m.expanded[row.id] {
				marker = "▾ "
			}
		}
		line := strings.Repeat("  ", int(row.kind)) + marker + row.title
		line = formatter.Truncate(line, width)

		style := formatter.StyleText
		switch row.kind {
		case browseDepartment:
			style = formatter.StyleHeading
		case browseCategory:
			style = formatter.StyleCategory
		}
		if i == m.cursor {
			style = style.Reverse(true)
		}
		lines = append(lines, style.Render(line))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}
