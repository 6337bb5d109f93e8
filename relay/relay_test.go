package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Seednode/sketchbox/canvas"
	"github.com/Seednode/sketchbox/drawing"
	"github.com/Seednode/sketchbox/socket"
	"github.com/Seednode/sketchbox/wire"
)

func newServer(t *testing.T, opts Options) (*Manager, string) {
	t.Helper()

	m := NewManager(opts)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		boardID := strings.TrimPrefix(r.URL.Path, "/")
		_ = m.ServeWS(w, r, boardID, r.RemoteAddr)
	}))

	t.Cleanup(func() {
		m.Close()
		srv.Close()
	})

	return m, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func rawDial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func waitForClients(t *testing.T, m *Manager, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Stats().Clients == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("Stats().Clients = %d, want %d", m.Stats().Clients, want)
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	return string(data)
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Errorf("unexpected frame %s", data)
	}
}

func TestRelayExcludesSender(t *testing.T) {
	m, url := newServer(t, Options{})

	a := rawDial(t, url+"/board1")
	b := rawDial(t, url+"/board1")
	c := rawDial(t, url+"/board1")
	other := rawDial(t, url+"/board2")
	waitForClients(t, m, 4)

	frame := `{"event":"start_draw","data":{"offsetX":5,"offsetY":5}}`
	if err := a.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatal(err)
	}

	for _, conn := range []*websocket.Conn{b, c} {
		if got := readFrame(t, conn); got != frame {
			t.Errorf("received %s, want %s", got, frame)
		}
	}

	expectSilence(t, a)
	expectSilence(t, other)
}

func TestRelayDropsMalformed(t *testing.T) {
	m, url := newServer(t, Options{})

	a := rawDial(t, url+"/board")
	b := rawDial(t, url+"/board")
	waitForClients(t, m, 2)

	for _, bad := range []string{
		`not json`,
		`{"event":"erase"}`,
		`{"event":"draw","data":{"offsetX":1}}`,
	} {
		if err := a.WriteMessage(websocket.TextMessage, []byte(bad)); err != nil {
			t.Fatal(err)
		}
	}

	good := `{"event":"clear"}`
	if err := a.WriteMessage(websocket.TextMessage, []byte(`{"event":"clear","extra":true}`)); err != nil {
		t.Fatal(err)
	}

	if got := readFrame(t, b); got != good {
		t.Errorf("received %s, want %s", got, good)
	}
}

func TestRelayRejectsBadBoardID(t *testing.T) {
	_, url := newServer(t, Options{})

	_, resp, err := websocket.DefaultDialer.Dial(url+"/bad%20id", nil)
	if err == nil {
		t.Fatal("Dial() succeeded for an invalid board id")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("response = %v, want 400", resp)
	}
}

func TestReapIdleBoards(t *testing.T) {
	m, url := newServer(t, Options{})

	conn := rawDial(t, url+"/sleepy")
	waitForClients(t, m, 1)

	m.reap(time.Now().Add(time.Minute))

	if got := m.Stats().Boards; got != 0 {
		t.Errorf("Stats().Boards = %d, want 0", got)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after its board was reaped")
	}
}

func waitForBoards(t *testing.T, m *Manager, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Stats().Boards == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("Stats().Boards = %d, want %d", m.Stats().Boards, want)
}

func TestEmptyBoardClosedWithoutReaper(t *testing.T) {
	m, url := newServer(t, Options{})

	conn := rawDial(t, url+"/brief")
	waitForClients(t, m, 1)

	_ = conn.Close()
	waitForBoards(t, m, 0)

	again := rawDial(t, url+"/brief")
	waitForClients(t, m, 1)

	other := rawDial(t, url+"/brief")
	waitForClients(t, m, 2)

	frame := `{"event":"clear"}`
	if err := again.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatal(err)
	}
	if got := readFrame(t, other); got != frame {
		t.Errorf("received %s, want %s", got, frame)
	}
}

func TestEmptyBoardKeptForReaper(t *testing.T) {
	m, url := newServer(t, Options{BoardTimeout: time.Hour})

	conn := rawDial(t, url+"/kept")
	waitForClients(t, m, 1)

	_ = conn.Close()
	waitForClients(t, m, 0)

	if got := m.Stats().Boards; got != 1 {
		t.Errorf("Stats().Boards = %d, want 1 until reaped", got)
	}
}

func TestFailedUpgradeOpensNoBoard(t *testing.T) {
	m, url := newServer(t, Options{})

	resp, err := http.Get("http" + strings.TrimPrefix(url, "ws") + "/plain")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("plain GET = %d, want 400", resp.StatusCode)
	}
	if got := m.Stats().Boards; got != 0 {
		t.Errorf("Stats().Boards = %d, want 0", got)
	}
}

func TestNewBoardID(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	seen := make(map[string]bool)
	for range 100 {
		id := m.NewBoardID()
		if len(id) != 8 || !ValidBoardID(id) {
			t.Fatalf("NewBoardID() = %q, want 8 valid characters", id)
		}
		seen[id] = true
	}

	if len(seen) < 99 {
		t.Errorf("NewBoardID() produced %d distinct ids out of 100", len(seen))
	}
}

func TestValidBoardID(t *testing.T) {
	tests := map[string]bool{
		"abc":                   true,
		"A1-b_2":                true,
		"":                      false,
		"has space":             false,
		"slash/y":               false,
		strings.Repeat("a", 64): true,
		strings.Repeat("a", 65): false,
	}

	for in, want := range tests {
		if got := ValidBoardID(in); got != want {
			t.Errorf("ValidBoardID(%q) = %v, want %v", in, got, want)
		}
	}
}

type participant struct {
	area   *drawing.Area
	canvas *canvas.Canvas
	sock   *socket.Client
}

func join(t *testing.T, ctx context.Context, url string) participant {
	t.Helper()

	sock, err := socket.Dial(ctx, url, socket.Options{})
	if err != nil {
		t.Fatalf("socket.Dial() error = %v", err)
	}
	go func() { _ = sock.Run(ctx) }()

	c := canvas.New(100, 100)
	a := drawing.NewArea(c, sock, drawing.Options{})
	if err := a.Mount(); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	return participant{area: a, canvas: c, sock: sock}
}

func waitForSegments(t *testing.T, c *canvas.Canvas, want int) []canvas.Segment {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if segs := c.Segments(); len(segs) == want {
			return segs
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("len(Segments()) = %d, want %d", len(c.Segments()), want)
	return nil
}

func TestSharedBoard(t *testing.T) {
	m, url := newServer(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := join(t, ctx, url+"/shared")
	bob := join(t, ctx, url+"/shared")
	waitForClients(t, m, 2)

	mustNil := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	mustNil(alice.area.PointerDown(drawing.MouseEvent{OffsetX: 5, OffsetY: 5}))
	mustNil(alice.area.PointerMove(drawing.MouseEvent{OffsetX: 10, OffsetY: 10}))
	mustNil(alice.area.PointerUp())

	segs := waitForSegments(t, bob.canvas, 1)
	want := canvas.Segment{From: wire.Point{X: 5, Y: 5}, To: wire.Point{X: 10, Y: 10}}
	if segs[0] != want {
		t.Errorf("bob's segment = %v, want %v", segs[0], want)
	}

	deadline := time.Now().Add(2 * time.Second)
	for bob.area.State() != drawing.Idle && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if bob.area.State() != drawing.Idle {
		t.Errorf("bob's state = %s, want idle", bob.area.State())
	}

	if got := len(alice.canvas.Segments()); got != 1 {
		t.Errorf("alice has %d segments, want 1 (no echo)", got)
	}

	mustNil(bob.area.ClearPressed())
	waitForSegments(t, alice.canvas, 0)

	bob.area.Unmount()
	if n := bob.sock.Subscriptions(); n != 0 {
		t.Errorf("bob has %d subscriptions after Unmount", n)
	}
}
