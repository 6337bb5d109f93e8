package socket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Seednode/sketchbox/wire"
)

var upgrader = websocket.Upgrader{}

// peer is a test server that records every frame it receives and sends
// whatever is written to its out channel. An empty string drops the
// connection.
type peer struct {
	srv  *httptest.Server
	in   chan string
	out  chan string
	stop chan struct{}
}

func newPeer(t *testing.T) *peer {
	t.Helper()

	p := &peer{
		in:   make(chan string, 16),
		out:  make(chan string, 16),
		stop: make(chan struct{}),
	}

	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		go func() {
			for {
				select {
				case <-p.stop:
					return
				case msg := <-p.out:
					if msg == "" {
						_ = conn.Close()
						return
					}
					if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
						return
					}
				}
			}
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			p.in <- string(data)
		}
	}))

	t.Cleanup(func() {
		close(p.stop)
		p.srv.Close()
	})

	return p
}

func (p *peer) url() string {
	return "ws" + strings.TrimPrefix(p.srv.URL, "http")
}

func dial(t *testing.T, p *peer, opts Options) (*Client, context.CancelFunc, chan error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	c, err := Dial(ctx, p.url(), opts)
	if err != nil {
		cancel()
		t.Fatalf("Dial() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	t.Cleanup(cancel)

	return c, cancel, done
}

func TestPublishSendsFrames(t *testing.T) {
	p := newPeer(t)
	c, _, _ := dial(t, p, Options{})

	c.Publish(wire.StartDraw, &wire.Point{X: 1, Y: 2})
	c.Publish(wire.FinishDraw, nil)

	want := []string{
		`{"event":"start_draw","data":{"offsetX":1,"offsetY":2}}`,
		`{"event":"finish_draw"}`,
	}

	for _, w := range want {
		select {
		case got := <-p.in:
			if got != w {
				t.Errorf("peer received %s, want %s", got, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", w)
		}
	}
}

func TestPublishInvalidIsNotSent(t *testing.T) {
	var logged []string

	p := newPeer(t)
	c, _, _ := dial(t, p, Options{Logf: func(f string, _ ...any) { logged = append(logged, f) }})

	c.Publish(wire.Draw, nil)
	c.Publish(wire.Clear, nil)

	select {
	case got := <-p.in:
		if got != `{"event":"clear"}` {
			t.Errorf("peer received %s, want only the clear frame", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for clear")
	}

	if len(logged) != 1 {
		t.Errorf("logged %d lines, want 1", len(logged))
	}
}

func TestInboundDispatch(t *testing.T) {
	p := newPeer(t)
	c, _, _ := dial(t, p, Options{})

	got := make(chan wire.Message, 4)
	c.Subscribe(wire.Draw, func(m wire.Message) { got <- m })
	c.Subscribe(wire.Clear, func(m wire.Message) { got <- m })

	p.out <- `{"event":"draw","data":{"offsetX":"bad"}}`
	p.out <- `{"event":"draw","data":{"offsetX":3,"offsetY":4}}`
	p.out <- `{"event":"finish_draw"}`
	p.out <- `{"event":"clear"}`

	select {
	case m := <-got:
		if m.Event != wire.Draw || m.Point == nil || *m.Point != (wire.Point{X: 3, Y: 4}) {
			t.Errorf("first message = %+v, want draw{3,4}", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for draw")
	}

	select {
	case m := <-got:
		if m.Event != wire.Clear {
			t.Errorf("second message = %s, want clear", m.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for clear")
	}
}

func TestUnsubscribeRemovesAllHandlers(t *testing.T) {
	c := NewClient(nil, Options{})

	c.Subscribe(wire.Draw, func(wire.Message) {})
	c.Subscribe(wire.Draw, func(wire.Message) {})
	c.Subscribe(wire.Clear, func(wire.Message) {})

	if n := c.Subscriptions(); n != 3 {
		t.Fatalf("Subscriptions() = %d, want 3", n)
	}

	c.Unsubscribe(wire.Draw)

	if n := c.Subscriptions(); n != 1 {
		t.Errorf("Subscriptions() = %d, want 1", n)
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	var dropped int

	c := NewClient(nil, Options{
		SendBuffer: 1,
		Logf:       func(string, ...any) { dropped++ },
	})

	c.Publish(wire.Clear, nil)
	c.Publish(wire.Clear, nil)
	c.Publish(wire.Clear, nil)

	if len(c.send) != 1 {
		t.Errorf("queued %d frames, want 1", len(c.send))
	}
	if dropped != 2 {
		t.Errorf("dropped %d frames, want 2", dropped)
	}
}

func TestRunReturnsNilOnCancel(t *testing.T) {
	p := newPeer(t)
	_, cancel, done := dial(t, p, Options{})

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRunReturnsWhenServerGoes(t *testing.T) {
	p := newPeer(t)
	_, _, done := dial(t, p, Options{})

	p.out <- ""

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after the server dropped the connection")
	}
}
