package drawing

import (
	"errors"

	"github.com/Seednode/sketchbox/wire"
)

var ErrNoPoint = errors.New("event has no locatable point")

// Touch is one contact point in page coordinates.
type Touch struct {
	PageX float64
	PageY float64
}

// MouseEvent covers mouse and pen input, already relative to the canvas.
type MouseEvent struct {
	OffsetX float64
	OffsetY float64
}

func (e MouseEvent) Offset() (float64, float64) {
	return e.OffsetX, e.OffsetY
}

// TouchEvent carries the active touches and the canvas' page origin.
type TouchEvent struct {
	Touches []Touch
	OriginX float64
	OriginY float64
}

func (e TouchEvent) FirstTouch() (Touch, bool) {
	if len(e.Touches) == 0 {
		return Touch{}, false
	}
	return e.Touches[0], true
}

func (e TouchEvent) Origin() (float64, float64) {
	return e.OriginX, e.OriginY
}

type touchSource interface {
	FirstTouch() (Touch, bool)
	Origin() (float64, float64)
}

type offsetSource interface {
	Offset() (float64, float64)
}

// Locate maps an input event to a canvas-relative point. Touch input is
// checked first so hosts that also synthesise offsets for touches still use
// the touch position.
func Locate(ev any) (wire.Point, error) {
	switch src := ev.(type) {
	case touchSource:
		return fromTouch(src)
	case offsetSource:
		return fromOffset(src), nil
	}
	return wire.Point{}, ErrNoPoint
}

func fromOffset(src offsetSource) wire.Point {
	x, y := src.Offset()
	return wire.Point{X: x, Y: y}
}

func fromTouch(src touchSource) (wire.Point, error) {
	t, ok := src.FirstTouch()
	if !ok {
		return wire.Point{}, ErrNoPoint
	}

	ox, oy := src.Origin()

	return wire.Point{X: t.PageX - ox, Y: t.PageY - oy}, nil
}
