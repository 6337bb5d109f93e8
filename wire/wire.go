/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package wire holds the sketchbox message catalog and its JSON framing.
//
// Every frame is an object with an "event" name and, for the two
// coordinate-carrying events, a "data" object:
//
//	{"event":"start_draw","data":{"offsetX":12,"offsetY":40}}
//	{"event":"draw","data":{"offsetX":13,"offsetY":42}}
//	{"event":"finish_draw"}
//	{"event":"clear"}
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

type Event string

const (
	StartDraw  Event = "start_draw"
	Draw       Event = "draw"
	FinishDraw Event = "finish_draw"
	Clear      Event = "clear"
)

// Events lists the catalog in subscription order.
var Events = []Event{StartDraw, FinishDraw, Draw, Clear}

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrMalformed    = errors.New("malformed frame")
)

// Carries reports whether frames of this event have a coordinate payload.
func (e Event) Carries() bool {
	return e == StartDraw || e == Draw
}

func (e Event) Known() bool {
	switch e {
	case StartDraw, Draw, FinishDraw, Clear:
		return true
	}
	return false
}

// Point is a canvas-relative coordinate in CSS pixels.
type Point struct {
	X float64
	Y float64
}

type payload struct {
	OffsetX *float64 `json:"offsetX"`
	OffsetY *float64 `json:"offsetY"`
}

// Message is one decoded frame. Point is nil for events without payload.
type Message struct {
	Event Event
	Point *Point
}

type frame struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Validate checks that the message matches the catalog.
func (m Message) Validate() error {
	if !m.Event.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, m.Event)
	}

	if !m.Event.Carries() {
		if m.Point != nil {
			return fmt.Errorf("%w: %s takes no data", ErrMalformed, m.Event)
		}
		return nil
	}

	if m.Point == nil {
		return fmt.Errorf("%w: %s requires offsetX and offsetY", ErrMalformed, m.Event)
	}

	if !finite(m.Point.X) || !finite(m.Point.Y) {
		return fmt.Errorf("%w: %s coordinates must be finite", ErrMalformed, m.Event)
	}

	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Encode validates m and returns its JSON frame.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	f := frame{Event: m.Event}

	if m.Point != nil {
		x, y := m.Point.X, m.Point.Y

		data, err := json.Marshal(payload{OffsetX: &x, OffsetY: &y})
		if err != nil {
			return nil, err
		}

		f.Data = data
	}

	return json.Marshal(f)
}

// Decode parses and validates a JSON frame.
func Decode(b []byte) (Message, error) {
	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	m := Message{Event: f.Event}

	if hasData(f.Data) {
		if !f.Event.Carries() {
			if !f.Event.Known() {
				return Message{}, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Event)
			}
			return Message{}, fmt.Errorf("%w: %s takes no data", ErrMalformed, f.Event)
		}

		var p payload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return Message{}, fmt.Errorf("%w: %s: %v", ErrMalformed, f.Event, err)
		}

		if p.OffsetX != nil && p.OffsetY != nil {
			m.Point = &Point{X: *p.OffsetX, Y: *p.OffsetY}
		}
	}

	if err := m.Validate(); err != nil {
		return Message{}, err
	}

	return m, nil
}

func hasData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func StartDrawAt(p Point) Message { return Message{Event: StartDraw, Point: &p} }

func DrawTo(p Point) Message { return Message{Event: Draw, Point: &p} }

func Finish() Message { return Message{Event: FinishDraw} }

func ClearAll() Message { return Message{Event: Clear} }
