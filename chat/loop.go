package chat

import "strings"

// Key is a control key observed outside the text-entry prompt.
type Key int

const (
	KeyEnter Key = iota + 1
	KeyEsc
)

// Action tells the input driver what to do next.
type Action int

const (
	ActionNone Action = iota
	ActionDispatch
	ActionExit
)

// Loop is the prompt/continue/exit state of the input loop. The prompt opens
// automatically after every completed request; cancelling it leaves the
// device waiting for Enter (reopen) or Esc (exit).
type Loop struct {
	prompting bool
}

// NewLoop returns a loop that starts with the prompt open.
func NewLoop() *Loop {
	return &Loop{prompting: true}
}

// Prompting reports whether the text-entry prompt should be open.
func (l *Loop) Prompting() bool {
	return l.prompting
}

// Submitted handles the outcome of the prompt. ok is false when the user
// dismissed it. Empty input reopens the prompt immediately.
func (l *Loop) Submitted(text string, ok bool) Action {
	if !ok {
		l.prompting = false
		return ActionNone
	}
	if strings.TrimSpace(text) == "" {
		l.prompting = true
		return ActionNone
	}
	l.prompting = false
	return ActionDispatch
}

// Resolved is called once a dispatched request has fully completed.
func (l *Loop) Resolved() {
	l.prompting = true
}

// Key handles a control key pressed while the prompt is closed.
func (l *Loop) Key(k Key) Action {
	switch k {
	case KeyEsc:
		return ActionExit
	case KeyEnter:
		l.prompting = true
	}
	return ActionNone
}
