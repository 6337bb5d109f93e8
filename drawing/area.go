/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package drawing is the shared drawing component: it binds a canvas
// element to a broadcast channel, renders local gestures and relays them,
// and renders gestures received from other participants without
// re-publishing them.
package drawing

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Seednode/sketchbox/wire"
)

var ErrNotMounted = errors.New("drawing area is not mounted")

// Handler receives a validated inbound message.
type Handler func(wire.Message)

// Channel is the real-time transport between participants.
type Channel interface {
	// Publish sends an event without waiting for delivery.
	Publish(event wire.Event, p *wire.Point)

	Subscribe(event wire.Event, h Handler)

	// Unsubscribe removes every handler registered for event.
	Unsubscribe(event wire.Event)
}

type Options struct {
	Style Style
	Logf  func(format string, args ...any)
}

// Area is one mounted drawing component. Its methods may be called from
// any goroutine; handler execution is serialised.
type Area struct {
	element Element
	channel Channel
	style   Style
	logf    func(string, ...any)

	mu      sync.Mutex
	surface Surface
	state   State
	mounted bool
}

func NewArea(element Element, channel Channel, opts Options) *Area {
	style := opts.Style
	if style == (Style{}) {
		style = DefaultStyle()
	}

	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	return &Area{
		element: element,
		channel: channel,
		style:   style,
		logf:    logf,
	}
}

// Mount acquires and configures the surface on first use, then
// (re)subscribes to the inbound events. Mounting again replaces the
// subscriptions instead of stacking them.
func (a *Area) Mount() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.surface == nil {
		s, err := a.element.Context()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoContext, err)
		}
		if s == nil {
			return ErrNoContext
		}

		s.Configure(a.style)
		a.surface = s
	}

	for _, ev := range wire.Events {
		a.channel.Unsubscribe(ev)
		a.channel.Subscribe(ev, a.receive)
	}

	a.mounted = true

	return nil
}

// Unmount drops every subscription. The surface is kept so a later Mount
// does not reconfigure it.
func (a *Area) Unmount() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.mounted {
		return
	}

	for _, ev := range wire.Events {
		a.channel.Unsubscribe(ev)
	}

	a.mounted = false
	a.state = Idle
}

func (a *Area) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.state
}

func (a *Area) Mounted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.mounted
}

// PointerDown handles mouse-down and touch-start.
func (a *Area) PointerDown(ev any) error {
	p, err := Locate(ev)
	if err != nil {
		a.logf("DRAW: Dropped %s input: %v", Start, err)
		return err
	}

	if _, err := a.local(Start, func() { a.startLocked(p) }); err != nil {
		return err
	}

	a.channel.Publish(wire.StartDraw, &p)

	return nil
}

// PointerMove handles mouse-move and touch-move. It does nothing unless a
// stroke is in progress.
func (a *Area) PointerMove(ev any) error {
	var (
		p      wire.Point
		locErr error
	)

	applied, err := a.local(Move, func() {
		p, locErr = Locate(ev)
		if locErr == nil {
			a.drawLocked(p)
		}
	})
	if err != nil || !applied {
		return err
	}

	if locErr != nil {
		a.logf("DRAW: Dropped %s input: %v", Move, locErr)
		return locErr
	}

	a.channel.Publish(wire.Draw, &p)

	return nil
}

// PointerUp handles mouse-up and touch-end.
func (a *Area) PointerUp() error {
	if _, err := a.local(Finish, a.finishLocked); err != nil {
		return err
	}

	a.channel.Publish(wire.FinishDraw, nil)

	return nil
}

// ClearPressed erases the visible region and tells everyone else to.
func (a *Area) ClearPressed() error {
	if _, err := a.local(Clear, a.clearLocked); err != nil {
		return err
	}

	a.channel.Publish(wire.Clear, nil)

	return nil
}

// local runs effect under the lock if phase applies in the current state.
// Publishing happens after the lock is released so a channel that delivers
// synchronously cannot re-enter the component.
func (a *Area) local(phase Phase, effect func()) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.mounted {
		return false, ErrNotMounted
	}

	if _, ok := a.state.Next(phase); !ok {
		return false, nil
	}

	effect()

	return true, nil
}

// receive applies an inbound message locally and never publishes.
func (a *Area) receive(m wire.Message) {
	if err := m.Validate(); err != nil {
		a.logf("DRAW: Rejected inbound %s: %v", m.Event, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.mounted {
		return
	}

	switch m.Event {
	case wire.StartDraw:
		a.startLocked(*m.Point)
	case wire.Draw:
		a.drawLocked(*m.Point)
	case wire.FinishDraw:
		a.finishLocked()
	case wire.Clear:
		a.clearLocked()
	}
}

func (a *Area) startLocked(p wire.Point) {
	a.surface.BeginPath()
	a.surface.MoveTo(p.X, p.Y)
	a.state, _ = a.state.Next(Start)
}

func (a *Area) drawLocked(p wire.Point) {
	a.surface.LineTo(p.X, p.Y)
	a.surface.Stroke()
}

func (a *Area) finishLocked() {
	a.surface.ClosePath()
	a.state, _ = a.state.Next(Finish)
}

func (a *Area) clearLocked() {
	w, h := a.element.Size()
	a.surface.ClearRect(0, 0, w, h)
	a.state, _ = a.state.Next(Clear)
}
