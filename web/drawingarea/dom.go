//go:build js && wasm

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"syscall/js"

	"github.com/Seednode/sketchbox/drawing"
)

// canvasElement adapts an HTMLCanvasElement.
type canvasElement struct {
	el js.Value
}

func (c canvasElement) Context() (drawing.Surface, error) {
	ctx := c.el.Call("getContext", "2d")
	if ctx.IsNull() || ctx.IsUndefined() {
		return nil, drawing.ErrNoContext
	}

	return &context2D{el: c.el, ctx: ctx}, nil
}

func (c canvasElement) Size() (float64, float64) {
	return c.el.Get("clientWidth").Float(), c.el.Get("clientHeight").Float()
}

// origin is the canvas' top left corner in page coordinates.
func (c canvasElement) origin() (float64, float64) {
	rect := c.el.Call("getBoundingClientRect")
	win := js.Global().Get("window")

	return rect.Get("left").Float() + win.Get("scrollX").Float(),
		rect.Get("top").Float() + win.Get("scrollY").Float()
}

type context2D struct {
	el  js.Value
	ctx js.Value
}

// Configure sizes the backing store to the element times the scale, so
// strokes stay sharp on high density screens.
func (c *context2D) Configure(s drawing.Style) {
	c.el.Set("width", c.el.Get("clientWidth").Float()*s.Scale)
	c.el.Set("height", c.el.Get("clientHeight").Float()*s.Scale)

	c.ctx.Call("scale", s.Scale, s.Scale)
	c.ctx.Set("lineCap", string(s.LineCap))
	c.ctx.Set("lineJoin", "round")
	c.ctx.Set("strokeStyle", s.StrokeColor)
	c.ctx.Set("lineWidth", s.LineWidth)
}

func (c *context2D) BeginPath()          { c.ctx.Call("beginPath") }
func (c *context2D) MoveTo(x, y float64) { c.ctx.Call("moveTo", x, y) }
func (c *context2D) LineTo(x, y float64) { c.ctx.Call("lineTo", x, y) }
func (c *context2D) Stroke()             { c.ctx.Call("stroke") }
func (c *context2D) ClosePath()          { c.ctx.Call("closePath") }

func (c *context2D) ClearRect(x, y, w, h float64) {
	c.ctx.Call("clearRect", x, y, w, h)
}
