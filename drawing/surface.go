/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package drawing

import (
	"errors"
)

// ErrNoContext is returned by Mount when the element has no usable 2D context.
var ErrNoContext = errors.New("canvas has no 2d context")

type LineCap string

const (
	CapButt   LineCap = "butt"
	CapRound  LineCap = "round"
	CapSquare LineCap = "square"
)

// Style is applied once, when the surface is acquired.
type Style struct {
	Scale       float64
	LineCap     LineCap
	StrokeColor string
	LineWidth   float64
}

// DefaultStyle draws 5px round black strokes on a 2x backing store.
func DefaultStyle() Style {
	return Style{
		Scale:       2,
		LineCap:     CapRound,
		StrokeColor: "black",
		LineWidth:   5,
	}
}

// Surface is the subset of a 2D canvas context the component drives.
// Coordinates are CSS pixels; implementations apply Style.Scale.
type Surface interface {
	Configure(Style)
	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Stroke()
	ClosePath()
	ClearRect(x, y, w, h float64)
}

// Element is the host canvas.
type Element interface {
	// Context returns the 2D drawing context, or an error if none is available.
	Context() (Surface, error)

	// Size returns the visible region in CSS pixels.
	Size() (width, height float64)
}
