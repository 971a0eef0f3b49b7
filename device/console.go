package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/linanwx/cardchat/chat"
	"github.com/linanwx/cardchat/logger"
	"github.com/linanwx/cardchat/plaintext"
)

// AskFunc runs one request for the submitted text.
type AskFunc func(ctx context.Context, text string) (string, error)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Console is the line-mode front end used when stdin is not a terminal.
// Each line is one message; EOF or "exit" ends the session.
type Console struct {
	prompt string
	in     io.Reader
	out    io.Writer
	mu     sync.Mutex
}

// NewConsole creates a console reading lines from in.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{prompt: "> ", in: in, out: out}
}

// ShowError prints msg on its own line.
func (c *Console) ShowError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, "! "+msg)
}

// Dismiss is a no-op; printed errors stay in the scrollback.
func (c *Console) Dismiss() {}

// Status prints connection progress. Clearing prints nothing.
func (c *Console) Status(msg string) {
	if msg == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, msg)
}

// Run reads messages until EOF, an exit word or ctx is done.
func (c *Console) Run(ctx context.Context, ask AskFunc) error {
	logger.Info("console started")
	scanner := bufio.NewScanner(c.in)
	loop := chat.NewLoop()
	for {
		if ctx.Err() != nil {
			return nil
		}
		c.write(c.prompt)
		if !scanner.Scan() {
			c.write("\n")
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if isExitWord(text) {
			c.write("Goodbye!\n")
			return nil
		}
		if loop.Submitted(text, true) != chat.ActionDispatch {
			continue
		}
		reply, err := ask(ctx, text)
		loop.Resolved()
		if err != nil {
			logger.Debug("console request failed", "err", err)
			continue
		}
		c.write("Bot: " + plaintext.Convert(reply) + "\n")
	}
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}

func isExitWord(text string) bool {
	switch text {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}
