/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package canvas is an off-screen drawing surface backed by a gg raster.
// It follows 2D canvas path semantics closely enough for the drawing
// component, and keeps a display list of the segments it has rendered.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg"

	"github.com/Seednode/sketchbox/drawing"
	"github.com/Seednode/sketchbox/wire"
)

var ErrEmptyCanvas = errors.New("canvas has zero size")

// Segment is one rendered line, in CSS pixels.
type Segment struct {
	From wire.Point
	To   wire.Point
}

type Canvas struct {
	width  float64
	height float64

	mu       sync.Mutex
	style    drawing.Style
	pixmap   *gg.Pixmap
	dc       *gg.Context
	current  *wire.Point
	start    *wire.Point
	pending  []Segment
	segments []Segment
	err      error
}

var (
	_ drawing.Element = (*Canvas)(nil)
	_ drawing.Surface = (*Canvas)(nil)
)

// New returns a canvas with a visible region of width x height CSS pixels.
// The backing raster is allocated by Configure.
func New(width, height int) *Canvas {
	return &Canvas{
		width:  float64(width),
		height: float64(height),
	}
}

func (c *Canvas) Context() (drawing.Surface, error) {
	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", ErrEmptyCanvas, c.width, c.height)
	}
	return c, nil
}

func (c *Canvas) Size() (float64, float64) {
	return c.width, c.height
}

func (c *Canvas) Configure(style drawing.Style) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if style.Scale <= 0 {
		style.Scale = 1
	}
	c.style = style

	w := int(math.Round(c.width * style.Scale))
	h := int(math.Round(c.height * style.Scale))

	c.pixmap = gg.NewPixmap(w, h)
	c.dc = gg.NewContext(w, h, gg.WithPixmap(c.pixmap))
	c.dc.Scale(style.Scale, style.Scale)
	c.dc.SetLineCap(lineCap(style.LineCap))
	c.dc.SetLineJoin(gg.LineJoinRound)
	c.dc.SetLineWidth(style.LineWidth)
	c.dc.SetColor(ParseColor(style.StrokeColor).Color())
}

func (c *Canvas) BeginPath() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	c.start = nil
	c.pending = nil
}

func (c *Canvas) MoveTo(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := wire.Point{X: x, Y: y}
	c.current = &p
	c.start = &p
}

// LineTo without a current point behaves like MoveTo.
func (c *Canvas) LineTo(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := wire.Point{X: x, Y: y}
	if c.current == nil {
		c.current = &p
		c.start = &p
		return
	}

	c.pending = append(c.pending, Segment{From: *c.current, To: p})
	c.current = &p
}

// Stroke rasterises the segments added since the previous Stroke.
func (c *Canvas) Stroke() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dc == nil || len(c.pending) == 0 {
		return
	}

	for _, s := range c.pending {
		c.dc.MoveTo(s.From.X, s.From.Y)
		c.dc.LineTo(s.To.X, s.To.Y)
	}

	if err := c.dc.Stroke(); err != nil {
		c.err = err
	}

	c.segments = append(c.segments, c.pending...)
	c.pending = nil
}

// ClosePath returns the pen to the start of the subpath without drawing.
func (c *Canvas) ClosePath() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.start
	c.pending = nil
}

// ClearRect makes the region transparent and forgets every segment that
// touches it. Clearing the whole canvas empties the display list.
func (c *Canvas) ClearRect(x, y, w, h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pixmap == nil {
		return
	}

	s := c.style.Scale
	x0 := max(int(math.Floor(x*s)), 0)
	y0 := max(int(math.Floor(y*s)), 0)
	x1 := min(int(math.Ceil((x+w)*s)), c.pixmap.Width())
	y1 := min(int(math.Ceil((y+h)*s)), c.pixmap.Height())

	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			c.pixmap.SetPixel(px, py, gg.Transparent)
		}
	}

	if x <= 0 && y <= 0 && x+w >= c.width && y+h >= c.height {
		c.segments = nil
		return
	}

	kept := c.segments[:0]
	for _, seg := range c.segments {
		if crossesRect(seg, x, y, x+w, y+h) {
			continue
		}
		kept = append(kept, seg)
	}
	c.segments = kept
}

// crossesRect reports whether any part of seg lies inside the rectangle
// (Liang-Barsky clipping).
func crossesRect(seg Segment, xmin, ymin, xmax, ymax float64) bool {
	dx := seg.To.X - seg.From.X
	dy := seg.To.Y - seg.From.Y

	t0, t1 := 0.0, 1.0
	for _, edge := range [4][2]float64{
		{-dx, seg.From.X - xmin},
		{dx, xmax - seg.From.X},
		{-dy, seg.From.Y - ymin},
		{dy, ymax - seg.From.Y},
	} {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return false
			}
			continue
		}

		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return false
			}
			t1 = min(t1, r)
		}
	}

	return t0 <= t1
}

// Segments returns a copy of the display list.
func (c *Canvas) Segments() []Segment {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Segment, len(c.segments))
	copy(out, c.segments)

	return out
}

func (c *Canvas) Style() drawing.Style {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.style
}

// Err returns the last rasterisation error, if any.
func (c *Canvas) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}

// Image returns a snapshot of the backing raster.
func (c *Canvas) Image() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pixmap == nil {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	return c.pixmap.ToImage()
}

func (c *Canvas) EncodePNG(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dc == nil {
		return ErrEmptyCanvas
	}

	return c.dc.EncodePNG(w)
}

func lineCap(lc drawing.LineCap) gg.LineCap {
	switch lc {
	case drawing.CapRound:
		return gg.LineCapRound
	case drawing.CapSquare:
		return gg.LineCapSquare
	}
	return gg.LineCapButt
}

// RGB is a stroke colour with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

func (c RGB) Color() color.Color {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

var named = map[string]RGB{
	"black": {0, 0, 0},
	"white": {255, 255, 255},
	"red":   {255, 0, 0},
	"green": {0, 128, 0},
	"blue":  {0, 0, 255},
	"gray":  {128, 128, 128},
}

// ParseColor understands a few CSS colour names and #rgb/#rrggbb.
// Anything else is black.
func ParseColor(s string) RGB {
	s = strings.ToLower(strings.TrimSpace(s))

	if c, ok := named[s]; ok {
		return c
	}

	if !strings.HasPrefix(s, "#") {
		return RGB{}
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}

	var c RGB
	if len(hex) != 6 {
		return c
	}

	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return RGB{}
	}

	return c
}
