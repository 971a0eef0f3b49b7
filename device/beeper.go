package device

import (
	"io"
	"sync"

	"github.com/linanwx/cardchat/logger"
)

// Tone of the reply acknowledgment.
const (
	BeepHz       = 2093 // C7
	BeepMillis   = 10
	bellSequence = "\a"
)

// Bell rings the terminal bell as the reply acknowledgment.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBell creates a bell writing to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Beep() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.w == nil {
		return
	}
	if _, err := io.WriteString(b.w, bellSequence); err != nil {
		logger.Debug("beep failed", "err", err)
		return
	}
	logger.Debug("beep", "hz", BeepHz, "ms", BeepMillis)
}
