// Package render paints the conversation onto a fixed-size pixel canvas.
//
// A paint pass clears the screen, draws the header, then walks the
// conversation newest first, drawing each turn's wrapped lines bottom-up
// until the next line would enter the header region. The framebuffer is
// flushed once per pass.
package render

import (
	"sync"

	"github.com/linanwx/cardchat/conversation"
	"github.com/linanwx/cardchat/layout"
	"github.com/linanwx/cardchat/plaintext"
)

// Color is a palette index.
type Color uint8

// Palette entries used by the chat screen.
const (
	ColorBackground Color = 2
	ColorRule       Color = 8
	ColorHeader     Color = 9
	ColorUser       Color = 10
	ColorModel      Color = 13
)

// Canvas is the drawing capability of the display. Coordinates are pixels
// with the origin at the top-left; y is the top of a text line.
type Canvas interface {
	FillRect(x, y, w, h int, c Color)
	Text(s string, x, y int, c Color)
	HLine(x, y, w int, c Color)
	// Show flushes the framebuffer to the physical display.
	Show() error
}

// Geometry describes the screen layout in pixels.
type Geometry struct {
	Width        int
	Height       int
	LineHeight   int
	HeaderHeight int // y of the rule under the title
	BottomMargin int // gap between the last line and the bottom edge
	SideMargin   int // x of text; wrap width is Width - 2*SideMargin
}

// DefaultGeometry returns the handheld layout for a width x height screen.
func DefaultGeometry(width, height, lineHeight int) Geometry {
	return Geometry{
		Width:        width,
		Height:       height,
		LineHeight:   lineHeight,
		HeaderHeight: 12,
		BottomMargin: 4,
		SideMargin:   2,
	}
}

// ClipTop is the smallest y a history line may be drawn at.
func (g Geometry) ClipTop() int {
	return g.HeaderHeight + 2
}

// WrapWidth is the pixel budget for one line of text.
func (g Geometry) WrapWidth() int {
	return g.Width - 2*g.SideMargin
}

// Style is the presentation of one role.
type Style struct {
	Prefix string
	Color  Color
}

// DefaultStyles maps each role to its prefix and color.
func DefaultStyles() map[conversation.Role]Style {
	return map[conversation.Role]Style{
		conversation.RoleUser:  {Prefix: "You: ", Color: ColorUser},
		conversation.RoleModel: {Prefix: "Bot: ", Color: ColorModel},
	}
}

// Coordinator owns the paint pass for one canvas.
type Coordinator struct {
	mu      sync.Mutex
	canvas  Canvas
	store   *conversation.Store
	geom    Geometry
	measure layout.Measurer
	title   string
	styles  map[conversation.Role]Style
}

// NewCoordinator creates a coordinator painting store onto canvas.
func NewCoordinator(canvas Canvas, store *conversation.Store, geom Geometry, measure layout.Measurer, title string) *Coordinator {
	return &Coordinator{
		canvas:  canvas,
		store:   store,
		geom:    geom,
		measure: measure,
		title:   title,
		styles:  DefaultStyles(),
	}
}

// Render repaints the whole screen from the current store contents.
func (c *Coordinator) Render() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.geom
	c.canvas.FillRect(0, 0, g.Width, g.Height, ColorBackground)
	c.canvas.Text(c.title, g.SideMargin, 2, ColorHeader)
	c.canvas.HLine(0, g.HeaderHeight, g.Width, ColorRule)

	y := g.Height - g.BottomMargin
	clip := g.ClipTop()
	for turn := range c.store.Newest() {
		style := c.styles[turn.Role]
		body := turn.Text
		if turn.Role == conversation.RoleModel {
			body = plaintext.Convert(body)
		}
		lines := layout.Wrap(style.Prefix+body, g.WrapWidth(), c.measure)
		for i := len(lines) - 1; i >= 0; i-- {
			y -= g.LineHeight
			if y < clip {
				return c.canvas.Show()
			}
			c.canvas.Text(lines[i], g.SideMargin, y, style.Color)
		}
	}
	return c.canvas.Show()
}

// Status draws msg on the bottom line without repainting history.
func (c *Coordinator) Status(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.geom
	y := g.Height - g.LineHeight
	c.canvas.FillRect(0, y, g.Width, g.LineHeight, ColorBackground)
	if lines := layout.Wrap(msg, g.WrapWidth(), c.measure); len(lines) > 0 {
		c.canvas.Text(lines[0], g.SideMargin, y, ColorHeader)
	}
	return c.canvas.Show()
}

// ClearStatus blanks the bottom line.
func (c *Coordinator) ClearStatus() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.geom
	c.canvas.FillRect(0, g.Height-g.LineHeight, g.Width, g.LineHeight, ColorBackground)
	return c.canvas.Show()
}
