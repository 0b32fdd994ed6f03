package display

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Panel geometry. The original hardware was a 128x32 pixel OLED; the
// terminal stand-in keeps the same cramped feel.
const (
	PanelCols = 32
	PanelRows = 6
)

// Panel styles
var (
	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#626262"))

	panelTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))
)

// Panel is a terminal status sink emulating the device's OLED. It runs a
// Bubble Tea program and receives updates via Program.Send, so Show and
// Connecting never block on rendering.
type Panel struct {
	program *tea.Program
	done    chan error
}

type showMsg []string

type connectingMsg bool

type panelModel struct {
	lines      []string
	connecting bool
	spinner    spinner.Model
}

func newPanelModel() panelModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return panelModel{
		lines:   []string{"Booting..."},
		spinner: sp,
	}
}

func (m panelModel) Init() tea.Cmd {
	return nil
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case showMsg:
		m.lines = msg
		return m, nil

	case connectingMsg:
		wasConnecting := m.connecting
		m.connecting = bool(msg)
		if m.connecting && !wasConnecting {
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.connecting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		// The panel is display-only; only ctrl+c tears it down
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m panelModel) View() string {
	lines := m.lines
	if m.connecting {
		lines = append([]string{m.spinner.View()}, lines...)
	}

	content := panelTextStyle.Render(strings.Join(lines, "\n"))
	centered := lipgloss.Place(PanelCols, PanelRows, lipgloss.Center, lipgloss.Center, content)
	return panelBorderStyle.Render(centered)
}

// NewPanel starts the terminal panel. It fails with ErrInit when stdout is
// not a terminal; callers treat that the way the firmware treats a dead
// display controller.
func NewPanel() (*Panel, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil, fmt.Errorf("%w: stdout is not a terminal", ErrInit)
	}

	program := tea.NewProgram(newPanelModel(), tea.WithOutput(os.Stdout))
	p := &Panel{
		program: program,
		done:    make(chan error, 1),
	}

	go func() {
		_, err := program.Run()
		p.done <- err
	}()

	return p, nil
}

func (p *Panel) Show(lines ...string) error {
	p.program.Send(showMsg(lines))
	return nil
}

func (p *Panel) Connecting(active bool) {
	p.program.Send(connectingMsg(active))
}

// Close stops the panel program and waits for it to exit.
func (p *Panel) Close() error {
	p.program.Quit()
	return <-p.done
}
