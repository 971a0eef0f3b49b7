package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxLogLines = 200

var (
	logDebugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	logWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	logErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// LogPanel tails intercepted log output, colored by level.
type LogPanel struct {
	viewport viewport.Model
	lines    []string
	warnings int
}

// NewLogPanel creates an empty log pane.
func NewLogPanel() *LogPanel {
	return &LogPanel{viewport: viewport.New(0, 0)}
}

func (p *LogPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	line, ok := msg.(LogLineMsg)
	if !ok {
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return p, cmd
	}
	text := strings.TrimRight(line.Line, "\n")
	style := logDebugStyle
	switch logLevel(text) {
	case "WARN":
		style = logWarnStyle
		p.warnings++
	case "ERROR":
		style = logErrorStyle
		p.warnings++
	}
	p.lines = append(p.lines, style.Render(text))
	if over := len(p.lines) - maxLogLines; over > 0 {
		p.lines = p.lines[over:]
	}
	p.viewport.SetContent(strings.Join(p.lines, "\n"))
	p.viewport.GotoBottom()
	return p, nil
}

func (p *LogPanel) View() string {
	return p.viewport.View()
}

func (p *LogPanel) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
}

// Len returns the number of buffered lines.
func (p *LogPanel) Len() int { return len(p.lines) }

// Warnings counts WARN and ERROR lines seen since start.
func (p *LogPanel) Warnings() int { return p.warnings }

// logLevel extracts the level from a text or JSON slog line.
func logLevel(line string) string {
	for _, key := range []string{"level=", `"level":"`} {
		i := strings.Index(line, key)
		if i < 0 {
			continue
		}
		rest := line[i+len(key):]
		if end := strings.IndexAny(rest, ` "`); end >= 0 {
			rest = rest[:end]
		}
		return rest
	}
	return ""
}
