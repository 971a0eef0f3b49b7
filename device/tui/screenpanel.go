package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	screenStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8"))
	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("9")).
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Padding(0, 1)
)

// ScreenPanel shows the device framebuffer, with the error popup laid over
// its bottom edge while a notice is open.
type ScreenPanel struct {
	frame  func() string
	notice string
	width  int
	height int
}

// NewScreenPanel creates a panel drawing whatever frame returns.
func NewScreenPanel(frame func() string) *ScreenPanel {
	return &ScreenPanel{frame: frame}
}

func (p *ScreenPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case NoticeMsg:
		p.notice = msg.Text
	case DismissMsg:
		p.notice = ""
	}
	return p, nil
}

func (p *ScreenPanel) View() string {
	screen := screenStyle.Render(p.frame())
	if p.notice == "" {
		return screen
	}
	popup := noticeStyle.Render(p.notice)
	return lipgloss.JoinVertical(lipgloss.Center, screen, popup)
}

func (p *ScreenPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Notice returns the open popup text, or "".
func (p *ScreenPanel) Notice() string {
	return p.notice
}
