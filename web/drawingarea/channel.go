//go:build js && wasm

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"syscall/js"

	"github.com/Seednode/sketchbox/drawing"
	"github.com/Seednode/sketchbox/wire"
)

const wsOpen = 1

// socketChannel is a drawing.Channel over the browser's WebSocket. Every
// callback runs on the page's event loop, so no locking is needed.
type socketChannel struct {
	ws       js.Value
	handlers map[wire.Event][]drawing.Handler
	funcs    []js.Func
	logf     func(string, ...any)
}

func dialChannel(url string, onState func(string), logf func(string, ...any)) *socketChannel {
	c := &socketChannel{
		ws:       js.Global().Get("WebSocket").New(url),
		handlers: make(map[wire.Event][]drawing.Handler),
		logf:     logf,
	}

	c.listen("open", func(js.Value) { onState("connected") })
	c.listen("close", func(js.Value) { onState("offline") })
	c.listen("error", func(js.Value) { onState("offline") })
	c.listen("message", func(ev js.Value) {
		data := ev.Get("data")
		if data.Type() != js.TypeString {
			return
		}

		msg, err := wire.Decode([]byte(data.String()))
		if err != nil {
			c.logf("DRAW: Dropped frame: %v", err)
			return
		}

		for _, h := range c.handlers[msg.Event] {
			h(msg)
		}
	})

	return c
}

func (c *socketChannel) listen(name string, fn func(js.Value)) {
	f := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn(args[0])
		return nil
	})
	c.funcs = append(c.funcs, f)

	c.ws.Call("addEventListener", name, f)
}

func (c *socketChannel) Publish(event wire.Event, p *wire.Point) {
	if c.ws.Get("readyState").Int() != wsOpen {
		c.logf("DRAW: Dropped %s, socket not open", event)
		return
	}

	data, err := wire.Encode(wire.Message{Event: event, Point: p})
	if err != nil {
		c.logf("DRAW: Unable to encode %s: %v", event, err)
		return
	}

	c.ws.Call("send", string(data))
}

func (c *socketChannel) Subscribe(event wire.Event, h drawing.Handler) {
	c.handlers[event] = append(c.handlers[event], h)
}

func (c *socketChannel) Unsubscribe(event wire.Event) {
	delete(c.handlers, event)
}

func (c *socketChannel) Close() {
	c.ws.Call("close")

	for _, f := range c.funcs {
		f.Release()
	}
	c.funcs = nil
}
