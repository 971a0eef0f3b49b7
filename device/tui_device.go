package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/linanwx/cardchat/device/tui"
	"github.com/linanwx/cardchat/logger"
)

// TUI is the full-screen front end. It shows the framebuffer, owns the
// message prompt and hosts the error popup. Log output is redirected into
// the log pane while it runs.
type TUI struct {
	fb       *Framebuffer
	app      *tui.App
	program  *tea.Program
	running  atomic.Bool
	fallback io.Writer
}

// NewTUI creates the front end for fb. Requests run through ask, one at a
// time, on a bubbletea command goroutine.
func NewTUI(ctx context.Context, fb *Framebuffer, ask AskFunc, fallback io.Writer) *TUI {
	d := &TUI{fb: fb, fallback: fallback}
	dispatch := func(text string) tea.Cmd {
		return func() tea.Msg {
			_, err := ask(ctx, text)
			return tui.ReplyDoneMsg{Err: err}
		}
	}
	d.app = tui.NewApp(fb.View, dispatch, func() { d.running.Store(true) })
	d.program = tea.NewProgram(d.app, tea.WithAltScreen(), tea.WithContext(ctx))
	fb.SetFlush(d.flush)
	return d
}

// Run blocks until the user exits.
func (d *TUI) Run() error {
	logger.Intercept(&logWriter{program: d.program, running: &d.running})
	defer logger.Restore()
	defer d.running.Store(false)

	logger.Info("tui started")
	if _, err := d.program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// ShowError opens the error popup.
func (d *TUI) ShowError(msg string) {
	if !d.send(tui.NoticeMsg{Text: msg}) && d.fallback != nil {
		fmt.Fprintln(d.fallback, msg)
	}
}

// Dismiss closes the error popup.
func (d *TUI) Dismiss() {
	d.send(tui.DismissMsg{})
}

func (d *TUI) flush() {
	d.send(tui.FrameMsg{})
}

// send delivers msg only while the program loop is running; before that
// tea.Program.Send would block.
func (d *TUI) send(msg tea.Msg) bool {
	if !d.running.Load() {
		return false
	}
	d.program.Send(msg)
	return true
}

// logWriter forwards each log line to the log pane.
type logWriter struct {
	program *tea.Program
	running *atomic.Bool
}

func (w *logWriter) Write(p []byte) (int, error) {
	if !w.running.Load() {
		return len(p), nil
	}
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		w.program.Send(tui.LogLineMsg{Line: string(line)})
	}
	return len(p), nil
}
