package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linanwx/cardchat/chat"
)

const (
	hintText = "[Enter] new message  [Esc] exit"
	busyText = "waiting for reply..."
)

var (
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// Dispatcher turns submitted text into a command that runs the request and
// reports ReplyDoneMsg.
type Dispatcher func(text string) tea.Cmd

// App is the root bubbletea model.
type App struct {
	screen     *ScreenPanel
	inputPanel *InputPanel
	logPanel   Panel

	loop     *chat.Loop
	dispatch Dispatcher
	busy     bool
	onStart  func()

	width, height int
}

// NewApp creates the root model. frame returns the current screen contents;
// onStart, if non-nil, runs once when the program starts.
func NewApp(frame func() string, dispatch Dispatcher, onStart func()) *App {
	return &App{
		screen:     NewScreenPanel(frame),
		inputPanel: NewInputPanel("> "),
		logPanel:   NewLogPanel(),
		loop:       chat.NewLoop(),
		dispatch:   dispatch,
		onStart:    onStart,
	}
}

func (m *App) Init() tea.Cmd {
	if m.onStart != nil {
		m.onStart()
	}
	return nil
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case InputSubmitMsg:
		if m.loop.Submitted(msg.Text, true) != chat.ActionDispatch {
			return m, nil
		}
		m.busy = true
		m.inputPanel.Blur()
		return m, m.dispatch(strings.TrimSpace(msg.Text))

	case InputCancelMsg:
		m.loop.Submitted("", false)
		m.inputPanel.Blur()
		return m, nil

	case ReplyDoneMsg:
		m.busy = false
		m.loop.Resolved()
		return m, m.inputPanel.Focus()

	case NoticeMsg, DismissMsg:
		p, cmd := m.screen.Update(msg)
		m.screen = p.(*ScreenPanel)
		return m, cmd

	case LogLineMsg:
		p, cmd := m.logPanel.Update(msg)
		m.logPanel = p
		return m, cmd

	case FrameMsg:
		return m, nil
	}

	p, cmd := m.inputPanel.Update(msg)
	m.inputPanel = p.(*InputPanel)
	return m, cmd
}

func (m *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}
	if m.loop.Prompting() {
		p, cmd := m.inputPanel.Update(msg)
		m.inputPanel = p.(*InputPanel)
		return m, cmd
	}
	switch msg.Type {
	case tea.KeyEsc:
		if m.loop.Key(chat.KeyEsc) == chat.ActionExit {
			return m, tea.Quit
		}
	case tea.KeyEnter:
		m.loop.Key(chat.KeyEnter)
		return m, m.inputPanel.Focus()
	}
	return m, nil
}

func (m *App) View() string {
	var bottom string
	switch {
	case m.busy:
		bottom = hintStyle.Render(busyText)
	case m.loop.Prompting():
		bottom = m.inputPanel.View()
	default:
		bottom = hintStyle.Render(hintText)
	}
	width := max(m.width, 1)
	sep := separatorStyle.Render(strings.Repeat("─", width))
	return lipgloss.JoinVertical(lipgloss.Left,
		m.screen.View(),
		bottom,
		sep,
		m.logPanel.View(),
	)
}

// Busy reports whether a request is outstanding.
func (m *App) Busy() bool { return m.busy }

// Prompting reports whether the message prompt is open.
func (m *App) Prompting() bool { return m.loop.Prompting() && !m.busy }

func (m *App) recalcLayout() {
	screenH := lipgloss.Height(m.screen.View())
	const inputH, sepH = 1, 1
	logH := max(m.height-screenH-inputH-sepH, 1)

	m.screen.SetSize(m.width, screenH)
	m.inputPanel.SetSize(m.width, inputH)
	m.logPanel.SetSize(m.width, logH)
}
