/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package relay

import (
	"crypto/rand"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Seednode/sketchbox/wire"
)

const (
	boardIDLength     = 8
	maxBoardIDLength  = 64
	defaultSendBuffer = 64
	defaultMaxMessage = 4096
	writeWait         = 10 * time.Second
)

var (
	ErrInvalidBoardID = errors.New("invalid board id")
	ErrClosed         = errors.New("relay is closed")
)

type Options struct {
	// BoardTimeout reaps boards idle for longer than this. Zero disables
	// reaping and closes a board as soon as its last client leaves.
	BoardTimeout time.Duration

	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int

	// MaxMessage caps the size of an inbound frame in bytes.
	MaxMessage int64

	Logf func(format string, args ...any)
}

// Manager holds a hub per board ID, so every board is an isolated room.
type Manager struct {
	opts     Options
	upgrader websocket.Upgrader

	mu     sync.Mutex
	hubs   map[string]*Hub
	closed bool

	done     chan struct{}
	doneOnce sync.Once
}

func NewManager(opts Options) *Manager {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.MaxMessage <= 0 {
		opts.MaxMessage = defaultMaxMessage
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}

	m := &Manager{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		hubs: make(map[string]*Hub),
		done: make(chan struct{}),
	}

	if opts.BoardTimeout > 0 {
		go m.reaperLoop()
	}

	return m
}

// ValidBoardID accepts 1-64 ASCII letters, digits, '-' and '_'.
func ValidBoardID(id string) bool {
	if id == "" || len(id) > maxBoardIDLength {
		return false
	}

	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}

	return true
}

func (m *Manager) hub(boardID string) (*Hub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	if h, ok := m.hubs[boardID]; ok {
		return h, nil
	}

	h := newHub(boardID, m.opts.Logf)
	if m.opts.BoardTimeout <= 0 {
		h.onEmpty = m.release
	}
	m.hubs[boardID] = h

	go h.run()

	m.opts.Logf("BOARD: Opened %s", boardID)

	return h, nil
}

// NewBoardID returns a random 8-character ID not used by a live board.
func (m *Manager) NewBoardID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	for {
		buf := make([]byte, boardIDLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		for i := range buf {
			buf[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(buf)

		m.mu.Lock()
		_, exists := m.hubs[id]
		m.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// Stats describes every live board, ordered by ID.
type Stats struct {
	Boards  int          `json:"boards"`
	Clients int          `json:"clients"`
	Detail  []BoardStats `json:"detail"`
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	hubs := make([]*Hub, 0, len(m.hubs))
	for _, h := range m.hubs {
		hubs = append(hubs, h)
	}
	m.mu.Unlock()

	s := Stats{Boards: len(hubs), Detail: make([]BoardStats, 0, len(hubs))}
	for _, h := range hubs {
		bs := h.Stats()
		s.Clients += bs.Clients
		s.Detail = append(s.Detail, bs)
	}

	sort.Slice(s.Detail, func(i, j int) bool { return s.Detail[i].ID < s.Detail[j].ID })

	return s
}

// ServeWS upgrades the request and relays frames for boardID until the
// connection ends.
func (m *Manager) ServeWS(w http.ResponseWriter, r *http.Request, boardID, addr string) error {
	if !ValidBoardID(boardID) {
		http.Error(w, ErrInvalidBoardID.Error(), http.StatusBadRequest)
		return ErrInvalidBoardID
	}

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := newClient(conn, addr, m.opts.SendBuffer)

	h, err := m.enter(boardID, c)
	if err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = conn.Close()

		return err
	}

	go c.writePump()
	c.readPump(h, m.opts.MaxMessage)

	return nil
}

// enter registers c with the board's hub, creating the hub if needed. A
// hub released between lookup and join is replaced once.
func (m *Manager) enter(boardID string, c *client) (*Hub, error) {
	for range 2 {
		h, err := m.hub(boardID)
		if err != nil {
			return nil, err
		}

		if h.join(c) {
			return h, nil
		}
	}

	return nil, ErrClosed
}

// release drops h once its last client has left. It only runs when
// reaping is disabled, so empty boards do not pile up.
func (m *Manager) release(h *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hubs[h.id] != h || h.Stats().Clients != 0 {
		return
	}

	delete(m.hubs, h.id)
	h.stop()

	m.opts.Logf("BOARD: Closed empty board %s", h.id)
}

func (c *client) readPump(h *Hub, limit int64) {
	defer func() {
		h.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(limit)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := wire.Decode(data)
		if err != nil {
			h.logf("BOARD: Dropped frame from %s on %s: %v", c.id, h.id, err)
			continue
		}

		out, err := wire.Encode(msg)
		if err != nil {
			continue
		}

		if !h.publish(frame{from: c, event: msg.Event, data: out}) {
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// reaperLoop removes boards idle longer than BoardTimeout.
func (m *Manager) reaperLoop() {
	ticker := time.NewTicker(m.opts.BoardTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.reap(time.Now().Add(-m.opts.BoardTimeout))
		}
	}
}

func (m *Manager) reap(cutoff time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, h := range m.hubs {
		if h.idleSince().Before(cutoff) {
			delete(m.hubs, id)
			h.stop()

			m.opts.Logf("BOARD: Reaped idle board %s", id)
		}
	}
}

// Close disconnects every board and stops the reaper.
func (m *Manager) Close() {
	m.doneOnce.Do(func() { close(m.done) })

	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	for id, h := range m.hubs {
		delete(m.hubs, id)
		h.stop()
	}
}
