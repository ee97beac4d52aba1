// Package teatest drives bubbletea models synchronously in tests.
//
// Messages go straight to Update and returned Cmds are run inline, so a
// test sees the model exactly as a running program would after each key.
package teatest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxDepth bounds how many chained Cmds one Send may run.
const MaxDepth = 64

// cmdTimeout skips Cmds that wait on timers (cursor blinks, ticks).
const cmdTimeout = 10 * time.Millisecond

// Driver feeds messages to a model and keeps the latest copy.
type Driver struct {
	t     *testing.T
	model tea.Model

	// Quitting is set once a Cmd yields tea.QuitMsg.
	Quitting bool
}

// New creates a driver. A positive width and height are delivered as a
// WindowSizeMsg before anything else.
func New(t *testing.T, model tea.Model, width, height int) *Driver {
	t.Helper()
	d := &Driver{t: t, model: model}
	if width > 0 && height > 0 {
		d.Send(tea.WindowSizeMsg{Width: width, Height: height})
	}
	d.run(model.Init(), 0)
	return d
}

// Model returns the current model.
func (d *Driver) Model() tea.Model {
	return d.model
}

// Send dispatches msg and runs the resulting Cmds. It does nothing once the
// model has quit.
func (d *Driver) Send(msg tea.Msg) {
	d.t.Helper()
	if d.Quitting {
		return
	}
	updated, cmd := d.model.Update(msg)
	d.model = updated
	d.run(cmd, 0)
}

// Press sends each named key in turn. Names follow tea.KeyMsg.String, so
// "down", "enter", "ctrl+c" and single characters like "j" all work.
func (d *Driver) Press(keys ...string) {
	d.t.Helper()
	for _, k := range keys {
		d.Send(KeyMsg(k))
	}
}

// View renders the current model.
func (d *Driver) View() string {
	return d.model.View()
}

var namedKeys = map[string]tea.KeyType{
	"up":        tea.KeyUp,
	"down":      tea.KeyDown,
	"left":      tea.KeyLeft,
	"right":     tea.KeyRight,
	"enter":     tea.KeyEnter,
	"esc":       tea.KeyEsc,
	"tab":       tea.KeyTab,
	"backspace": tea.KeyBackspace,
	"pgup":      tea.KeyPgUp,
	"pgdown":    tea.KeyPgDown,
	"home":      tea.KeyHome,
	"end":       tea.KeyEnd,
	"ctrl+c":    tea.KeyCtrlC,
	"ctrl+d":    tea.KeyCtrlD,
	"ctrl+u":    tea.KeyCtrlU,
	" ":         tea.KeySpace,
}

// KeyMsg builds the key message whose String() is name.
func KeyMsg(name string) tea.KeyMsg {
	if t, ok := namedKeys[name]; ok {
		return tea.KeyMsg{Type: t}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
}

func (d *Driver) run(cmd tea.Cmd, depth int) {
	d.t.Helper()
	if cmd == nil {
		return
	}
	if depth >= MaxDepth {
		d.t.Logf("teatest: command chain deeper than %d, stopping", MaxDepth)
		return
	}

	msg, ok := callWithTimeout(cmd)
	if !ok || msg == nil {
		return
	}

	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			d.run(sub, depth+1)
		}
	case tea.QuitMsg:
		d.Quitting = true
	default:
		updated, next := d.model.Update(msg)
		d.model = updated
		d.run(next, depth+1)
	}
}

func callWithTimeout(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(cmdTimeout):
		return nil, false
	}
}
