package tuihost

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/toastkit/internal/model"
	"github.com/jmylchreest/toastkit/internal/obstruction"
	"github.com/jmylchreest/toastkit/internal/toast"
)

// frameInterval is how often animations are stepped.
const frameInterval = 50 * time.Millisecond

// footerRows is the space under the toast area for the status and help lines.
const footerRows = 2

var demoMessages = []string{
	"Saved",
	"Copied to clipboard",
	"Connection restored",
	"3 files uploaded",
	"Download complete",
	"Settings updated",
}

// Model is the bubbletea model for the toast demo.
type Model struct {
	host    *Host
	center  *toast.Center
	tracker *obstruction.Tracker

	keys KeyMap
	help help.Model

	position model.Position
	keyboard bool
	counter  int

	width  int
	height int
	ready  bool

	statusMsg string
	statusErr bool
}

// NewModel creates the demo model.
func NewModel(host *Host, center *toast.Center, tracker *obstruction.Tracker) Model {
	return Model{
		host:     host,
		center:   center,
		tracker:  tracker,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		position: model.PositionBottomCenter,
	}
}

type frameMsg time.Time

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Init starts the animation clock.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.host.Resize(msg.Width, max(msg.Height-footerRows, 0))
		if m.keyboard {
			m.tracker.WillShow(m.keyboardFrame())
		}
		if !m.ready {
			m.ready = m.center.Activate()
		}
		return m, nil

	case dispatchMsg:
		for _, fn := range msg.fns {
			fn()
		}
		return m, nil

	case frameMsg:
		m.host.Advance(time.Time(msg))
		return m, tick()

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Plain):
		return m, m.show(model.StylePlain, m.nextMessage())

	case key.Matches(msg, m.keys.Success):
		return m, m.show(model.StyleSuccess, "Changes saved")

	case key.Matches(msg, m.keys.Error):
		return m, m.show(model.StyleError, "Could not reach server")

	case key.Matches(msg, m.keys.Warning):
		return m, m.show(model.StyleWarning, "Battery low")

	case key.Matches(msg, m.keys.Styled):
		return m, m.showStyled("<b>Bold</b> and <i>italic</i> text")

	case key.Matches(msg, m.keys.Burst):
		cmds := make([]tea.Cmd, 0, 3)
		for range 3 {
			cmds = append(cmds, m.show(model.StylePlain, m.nextMessage()))
		}
		return m, tea.Sequence(cmds...)

	case key.Matches(msg, m.keys.Position):
		m.position = nextPosition(m.position)
		return m, status("Position: " + m.position.String())

	case key.Matches(msg, m.keys.CancelCurrent):
		if !m.center.CancelCurrent() {
			return m, status("Nothing visible")
		}
		return m, nil

	case key.Matches(msg, m.keys.CancelAll):
		m.center.CancelAll()
		return m, status("Cancelled all toasts")

	case key.Matches(msg, m.keys.Keyboard):
		m.keyboard = !m.keyboard
		if m.keyboard {
			m.tracker.WillShow(m.keyboardFrame())
		} else {
			m.tracker.WillHide()
		}
		return m, nil

	case key.Matches(msg, m.keys.Accessibility):
		enabled := !m.center.AccessibilityEnabled()
		m.center.SetAccessibilityEnabled(enabled)
		return m, status(fmt.Sprintf("Announcements: %t", enabled))
	}

	return m, nil
}

func (m *Model) nextMessage() string {
	text := demoMessages[m.counter%len(demoMessages)]
	m.counter++
	return text
}

func (m Model) show(style model.Style, text string) tea.Cmd {
	_, err := toast.NewText(m.center, text, toast.WithStyle(style), toast.WithPosition(m.position))
	return failed(err)
}

func (m Model) showStyled(markup string) tea.Cmd {
	_, err := toast.NewStyled(m.center, markup, toast.WithPosition(m.position))
	return failed(err)
}

func failed(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return func() tea.Msg {
		return statusMsg{text: "Toast failed: " + err.Error(), isErr: true}
	}
}

func status(text string) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text}
	}
}

// nextPosition cycles through the nine positions.
func nextPosition(p model.Position) model.Position {
	positions := model.ValidPositions()
	for i, candidate := range positions {
		if candidate == p {
			return positions[(i+1)%len(positions)]
		}
	}
	return positions[0]
}

// keyboardRows is the height of the simulated on-screen keyboard.
func (m Model) keyboardRows() int {
	return max((m.height-footerRows)/3, 1)
}

func (m Model) keyboardFrame() model.Rect {
	rows := m.height - footerRows
	kb := m.keyboardRows()
	return model.Rect{
		Y: float64(rows-kb) * CellHeight,
		W: float64(m.width) * CellWidth,
		H: float64(kb) * CellHeight,
	}
}

// View renders the screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	screen := m.host.Render()
	if m.keyboard {
		screen = m.drawKeyboard(screen)
	}

	var footer string
	if m.statusMsg != "" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			style = style.Foreground(lipgloss.Color("9"))
		}
		footer = style.Render(m.statusMsg)
	} else {
		s := m.center.Status()
		footer = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
			fmt.Sprintf("%s  queued %d", m.position, s.Queued))
	}

	return screen + "\n" + footer + "\n" + m.help.View(m.keys)
}

// drawKeyboard replaces the bottom rows of screen with the keyboard band.
func (m Model) drawKeyboard(screen string) string {
	rows := strings.Split(screen, "\n")
	band := lipgloss.NewStyle().
		Background(lipgloss.Color("8")).
		Foreground(lipgloss.Color("0")).
		Width(m.width)

	kb := m.keyboardRows()
	for i := max(len(rows)-kb, 0); i < len(rows); i++ {
		label := ""
		if i == len(rows)-kb {
			label = " keyboard"
		}
		rows[i] = band.Render(label)
	}
	return strings.Join(rows, "\n")
}
