// Package tui is the full-screen front end: the device screen, the message
// prompt, an error popup and a log pane.
package tui

import tea "github.com/charmbracelet/bubbletea"

// Panel is a composable TUI region with its own state, update logic, and view.
type Panel interface {
	Update(tea.Msg) (Panel, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// LogLineMsg carries a single log line from the logger writer.
type LogLineMsg struct{ Line string }

// FrameMsg signals that the framebuffer was flushed.
type FrameMsg struct{}

// NoticeMsg opens the error popup.
type NoticeMsg struct{ Text string }

// DismissMsg closes the error popup.
type DismissMsg struct{}

// ReplyDoneMsg is emitted once a dispatched request has completed.
type ReplyDoneMsg struct{ Err error }

// InputSubmitMsg is emitted when the user presses Enter in the input panel.
type InputSubmitMsg struct{ Text string }

// InputCancelMsg is emitted when the user presses Esc in the input panel.
type InputCancelMsg struct{}
