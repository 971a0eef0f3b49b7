// Package device adapts the chat screen to the host terminal: a character
// framebuffer standing in for the pixel display, a network link probe, the
// acknowledgment bell and the two input front ends (full-screen and plain).
package device

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/linanwx/cardchat/render"
)

const ruleGlyph = '─'

type cell struct {
	r rune // 0 marks the right half of a wide rune
	c render.Color
}

// Framebuffer is a render.Canvas that maps pixel coordinates onto a grid of
// terminal cells, one cell per glyph and one row per text line.
type Framebuffer struct {
	mu     sync.Mutex
	glyphW int
	lineH  int
	cols   int
	rows   int
	cells  [][]cell
	flush  func()
	frames int
}

// NewFramebuffer creates a framebuffer for a width x height pixel screen.
// flush, if non-nil, is called on every Show.
func NewFramebuffer(width, height, glyphWidth, lineHeight int, flush func()) *Framebuffer {
	glyphWidth = max(glyphWidth, 1)
	lineHeight = max(lineHeight, 1)
	fb := &Framebuffer{
		glyphW: glyphWidth,
		lineH:  lineHeight,
		cols:   max(width/glyphWidth, 1),
		rows:   max(height/lineHeight, 1),
		flush:  flush,
	}
	fb.cells = make([][]cell, fb.rows)
	for i := range fb.cells {
		fb.cells[i] = make([]cell, fb.cols)
	}
	fb.clearLocked(0, 0, fb.cols, fb.rows, render.ColorBackground)
	return fb
}

// SetFlush replaces the flush callback.
func (f *Framebuffer) SetFlush(flush func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flush = flush
}

func (f *Framebuffer) FillRect(x, y, w, h int, c render.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	col0, row0 := f.cellAt(x, y)
	col1, row1 := f.cellAt(x+w-1, y+h-1)
	f.clearLocked(col0, row0, col1+1, row1+1, c)
}

func (f *Framebuffer) Text(s string, x, y int, c render.Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	col, row := f.cellAt(x, y)
	if row < 0 || row >= f.rows {
		return
	}
	line := f.cells[row]
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col < 0 || col+w > f.cols {
			return
		}
		line[col] = cell{r: r, c: c}
		for i := 1; i < w; i++ {
			line[col+i] = cell{c: c}
		}
		col += w
	}
}

func (f *Framebuffer) HLine(x, y, w int, c render.Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	col0, row := f.cellAt(x, y)
	col1, _ := f.cellAt(x+w-1, y)
	if row < 0 || row >= f.rows {
		return
	}
	for col := max(col0, 0); col <= min(col1, f.cols-1); col++ {
		f.cells[row][col] = cell{r: ruleGlyph, c: c}
	}
}

// Show counts the frame and hands it to the flush callback.
func (f *Framebuffer) Show() error {
	f.mu.Lock()
	f.frames++
	flush := f.flush
	f.mu.Unlock()
	if flush != nil {
		flush()
	}
	return nil
}

// Frames returns how many times Show was called.
func (f *Framebuffer) Frames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

// Lines returns the screen as plain text, one string per row, with trailing
// blanks trimmed.
func (f *Framebuffer) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, f.rows)
	for i, row := range f.cells {
		var b strings.Builder
		for _, cl := range row {
			if cl.r != 0 {
				b.WriteRune(cl.r)
			}
		}
		out[i] = strings.TrimRight(b.String(), " ")
	}
	return out
}

// View renders the screen with each run of same-colored cells styled by
// lipgloss.
func (f *Framebuffer) View() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]string, f.rows)
	for i, row := range f.cells {
		var b strings.Builder
		var run strings.Builder
		cur := row[0].c
		for _, cl := range row {
			if cl.c != cur {
				b.WriteString(styleFor(cur).Render(run.String()))
				run.Reset()
				cur = cl.c
			}
			if cl.r != 0 {
				run.WriteRune(cl.r)
			}
		}
		b.WriteString(styleFor(cur).Render(run.String()))
		rows[i] = b.String()
	}
	return strings.Join(rows, "\n")
}

func (f *Framebuffer) cellAt(x, y int) (int, int) {
	return floorDiv(x, f.glyphW), floorDiv(y, f.lineH)
}

func (f *Framebuffer) clearLocked(col0, row0, col1, row1 int, c render.Color) {
	for row := max(row0, 0); row < min(row1, f.rows); row++ {
		for col := max(col0, 0); col < min(col1, f.cols); col++ {
			f.cells[row][col] = cell{r: ' ', c: c}
		}
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

var styles sync.Map // render.Color -> lipgloss.Style

func styleFor(c render.Color) lipgloss.Style {
	if s, ok := styles.Load(c); ok {
		return s.(lipgloss.Style)
	}
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(strconv.Itoa(int(c))))
	styles.Store(c, s)
	return s
}
