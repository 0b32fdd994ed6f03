package display

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func TestPanelModelShow(t *testing.T) {
	m := newPanelModel()

	next, _ := m.Update(showMsg{"AP Mode Active", "192.168.4.1"})
	view := next.(panelModel).View()

	if !strings.Contains(view, "AP Mode Active") {
		t.Errorf("view missing first line:\n%s", view)
	}
	if !strings.Contains(view, "192.168.4.1") {
		t.Errorf("view missing second line:\n%s", view)
	}
	if strings.Contains(view, "Booting...") {
		t.Errorf("view still shows boot text:\n%s", view)
	}
}

func TestPanelModelSpinnerLifecycle(t *testing.T) {
	m := newPanelModel()

	// Entering the connecting state schedules spinner ticks
	next, cmd := m.Update(connectingMsg(true))
	m = next.(panelModel)
	if cmd == nil {
		t.Fatal("entering connecting state returned no tick command")
	}

	// Ticks keep flowing while connecting
	next, cmd = m.Update(spinner.TickMsg{ID: m.spinner.ID()})
	m = next.(panelModel)
	if cmd == nil {
		t.Error("spinner tick while connecting returned no follow-up command")
	}

	// Leaving the connecting state stops the spinner silently
	next, _ = m.Update(connectingMsg(false))
	m = next.(panelModel)
	if _, cmd = m.Update(spinner.TickMsg{ID: m.spinner.ID()}); cmd != nil {
		t.Error("spinner tick after disconnect scheduled another tick")
	}
}

func TestPanelModelQuitKey(t *testing.T) {
	m := newPanelModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("ctrl+c produced %v, want tea.Quit", msg)
	}

	// Other keys are ignored
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}); cmd != nil {
		t.Error("plain keypress produced a command")
	}
}
