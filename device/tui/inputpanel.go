package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// InputPanel provides the single-line message prompt.
type InputPanel struct {
	input         textinput.Model
	width, height int
}

// NewInputPanel creates an input panel with the given prompt.
func NewInputPanel(prompt string) *InputPanel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = "Type a message"
	ti.Focus()
	return &InputPanel{input: ti}
}

func (p *InputPanel) Update(msg tea.Msg) (Panel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			text := p.input.Value()
			p.input.Reset()
			return p, func() tea.Msg { return InputSubmitMsg{Text: text} }
		case tea.KeyEsc:
			p.input.Reset()
			return p, func() tea.Msg { return InputCancelMsg{} }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *InputPanel) View() string {
	return p.input.View()
}

func (p *InputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(width-len(p.input.Prompt)-1, 1)
}

// Focus opens the prompt for typing.
func (p *InputPanel) Focus() tea.Cmd {
	return p.input.Focus()
}

// Blur closes the prompt.
func (p *InputPanel) Blur() {
	p.input.Blur()
}

// SetValue replaces the prompt text.
func (p *InputPanel) SetValue(s string) {
	p.input.SetValue(s)
}
