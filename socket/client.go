/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package socket implements the drawing channel over a websocket connection
// to a sketchbox board.
package socket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Seednode/sketchbox/drawing"
	"github.com/Seednode/sketchbox/wire"
)

const (
	defaultSendBuffer = 64
	writeWait         = 10 * time.Second
)

var ErrClosed = errors.New("socket is closed")

type Options struct {
	// SendBuffer is the number of outbound frames queued before new ones
	// are dropped.
	SendBuffer int
	Header     http.Header
	Logf       func(format string, args ...any)
}

// Client is a drawing.Channel bound to one websocket connection.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	logf func(string, ...any)

	mu       sync.RWMutex
	handlers map[wire.Event][]drawing.Handler

	closeOnce sync.Once
}

var _ drawing.Channel = (*Client)(nil)

// Dial connects to a board's websocket endpoint.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		return nil, err
	}

	return NewClient(conn, opts), nil
}

func NewClient(conn *websocket.Conn, opts Options) *Client {
	size := opts.SendBuffer
	if size <= 0 {
		size = defaultSendBuffer
	}

	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	return &Client{
		conn:     conn,
		send:     make(chan []byte, size),
		done:     make(chan struct{}),
		logf:     logf,
		handlers: make(map[wire.Event][]drawing.Handler),
	}
}

// Publish queues a frame. It never blocks: when the queue is full or the
// client is closed the frame is dropped.
func (c *Client) Publish(event wire.Event, p *wire.Point) {
	data, err := wire.Encode(wire.Message{Event: event, Point: p})
	if err != nil {
		c.logf("SOCKET: Not sending %s: %v", event, err)
		return
	}

	select {
	case <-c.done:
		c.logf("SOCKET: Dropped %s: %v", event, ErrClosed)
	case c.send <- data:
	default:
		c.logf("SOCKET: Dropped %s: send buffer full", event)
	}
}

func (c *Client) Subscribe(event wire.Event, h drawing.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[event] = append(c.handlers[event], h)
}

func (c *Client) Unsubscribe(event wire.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.handlers, event)
}

// Subscriptions returns the number of registered handlers across all events.
func (c *Client) Subscriptions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, hs := range c.handlers {
		n += len(hs)
	}

	return n
}

// Run pumps frames in both directions until ctx is done or the connection
// fails. It returns nil when ctx ends or the peer closes normally.
func (c *Client) Run(ctx context.Context) error {
	errs := make(chan error, 2)

	go func() { errs <- c.writePump() }()
	go func() { errs <- c.readPump() }()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errs:
	}

	_ = c.Close()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, ErrClosed) {
		return nil
	}

	return err
}

func (c *Client) readPump() error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return ErrClosed
			default:
				return err
			}
		}

		m, err := wire.Decode(data)
		if err != nil {
			c.logf("SOCKET: Rejected inbound frame: %v", err)
			continue
		}

		c.dispatch(m)
	}
}

func (c *Client) dispatch(m wire.Message) {
	c.mu.RLock()
	hs := make([]drawing.Handler, len(c.handlers[m.Event]))
	copy(hs, c.handlers[m.Event])
	c.mu.RUnlock()

	for _, h := range hs {
		h(m)
	}
}

func (c *Client) writePump() error {
	for {
		select {
		case <-c.done:
			return ErrClosed
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		}
	}
}

// Close sends a close frame and tears the connection down. It is safe to
// call more than once.
func (c *Client) Close() error {
	var err error

	c.closeOnce.Do(func() {
		close(c.done)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

		err = c.conn.Close()
	})

	return err
}
