//go:build js && wasm

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Command drawingarea is the browser side of a board, compiled with
// GOOS=js GOARCH=wasm and served from --wasm-dir.
package main

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/Seednode/sketchbox/drawing"
)

func logf(format string, args ...any) {
	js.Global().Get("console").Call("log", fmt.Sprintf(format, args...))
}

// socketURL derives the board's websocket address from the page location.
func socketURL(location js.Value) string {
	scheme := "ws://"
	if location.Get("protocol").String() == "https:" {
		scheme = "wss://"
	}

	return scheme + location.Get("host").String() + strings.TrimSuffix(location.Get("pathname").String(), "/") + "/ws"
}

func touchEvent(el canvasElement, ev js.Value) drawing.TouchEvent {
	list := ev.Get("touches")

	touches := make([]drawing.Touch, list.Length())
	for i := range touches {
		t := list.Index(i)
		touches[i] = drawing.Touch{PageX: t.Get("pageX").Float(), PageY: t.Get("pageY").Float()}
	}

	ox, oy := el.origin()

	return drawing.TouchEvent{Touches: touches, OriginX: ox, OriginY: oy}
}

func mouseEvent(ev js.Value) drawing.MouseEvent {
	return drawing.MouseEvent{OffsetX: ev.Get("offsetX").Float(), OffsetY: ev.Get("offsetY").Float()}
}

func on(target js.Value, name string, fn func(ev js.Value) error) {
	target.Call("addEventListener", name, js.FuncOf(func(this js.Value, args []js.Value) any {
		if err := fn(args[0]); err != nil {
			logf("DRAW: %s: %v", name, err)
		}
		return nil
	}))
}

func main() {
	doc := js.Global().Get("document")
	status := doc.Call("getElementById", "status")
	fallback := doc.Call("getElementById", "fallback")

	el := canvasElement{el: doc.Call("getElementById", "drawing-area")}

	channel := dialChannel(socketURL(js.Global().Get("location")), func(state string) {
		status.Set("textContent", state)
	}, logf)

	area := drawing.NewArea(el, channel, drawing.Options{Logf: logf})
	if err := area.Mount(); err != nil {
		logf("DRAW: %v", err)
		fallback.Set("hidden", false)
		channel.Close()

		return
	}

	on(el.el, "mousedown", func(ev js.Value) error { return area.PointerDown(mouseEvent(ev)) })
	on(el.el, "mousemove", func(ev js.Value) error { return area.PointerMove(mouseEvent(ev)) })
	on(el.el, "mouseup", func(js.Value) error { return area.PointerUp() })

	on(el.el, "touchstart", func(ev js.Value) error {
		ev.Call("preventDefault")
		return area.PointerDown(touchEvent(el, ev))
	})
	on(el.el, "touchmove", func(ev js.Value) error {
		ev.Call("preventDefault")
		return area.PointerMove(touchEvent(el, ev))
	})
	on(el.el, "touchend", func(js.Value) error { return area.PointerUp() })

	on(doc.Call("getElementById", "clear"), "click", func(js.Value) error { return area.ClearPressed() })

	done := make(chan struct{})
	on(js.Global().Get("window"), "beforeunload", func(js.Value) error {
		area.Unmount()
		channel.Close()
		close(done)
		return nil
	})

	<-done
}
