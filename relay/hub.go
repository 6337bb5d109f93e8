/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package relay fans drawing events out to every other participant of a
// board. It keeps no drawing state: frames are validated, forwarded once,
// and forgotten.
package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Seednode/sketchbox/wire"
)

type client struct {
	id   string
	addr string
	conn *websocket.Conn
	send chan []byte
}

type frame struct {
	from  *client
	event wire.Event
	data  []byte
}

// Hub owns the connections of one board.
type Hub struct {
	id      string
	logf    func(string, ...any)
	onEmpty func(*Hub)

	clients map[*client]bool

	register chan *client
	unreg    chan *client
	inbound  chan frame
	quit     chan struct{}
	stopOnce sync.Once

	mu         sync.RWMutex
	count      int
	createdAt  time.Time
	lastActive time.Time
	relayed    uint64
	dropped    uint64
}

func newHub(boardID string, logf func(string, ...any)) *Hub {
	now := time.Now()

	return &Hub{
		id:         boardID,
		logf:       logf,
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unreg:      make(chan *client),
		inbound:    make(chan frame),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func newClient(conn *websocket.Conn, addr string, buffer int) *client {
	return &client{
		id:   uuid.NewString(),
		addr: addr,
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.touch(func() { h.count = len(h.clients) })

			h.logf("BOARD: Client %s (%s) joined %s, %d connected", c.id, c.addr, h.id, len(h.clients))

		case c := <-h.unreg:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.touch(func() { h.count = len(h.clients) })

			h.logf("BOARD: Client %s left %s, %d connected", c.id, h.id, len(h.clients))

			if len(h.clients) == 0 && h.onEmpty != nil {
				h.onEmpty(h)

				if h.stopped() {
					return
				}
			}

		case f := <-h.inbound:
			h.broadcast(f)

		case <-h.quit:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
				_ = c.conn.Close()
			}
			h.touch(func() { h.count = 0 })

			return
		}
	}
}

// broadcast forwards f to everyone but its sender. A client whose buffer is
// full is disconnected rather than allowed to stall the board.
func (h *Hub) broadcast(f frame) {
	var sent, dropped uint64

	for c := range h.clients {
		if c == f.from {
			continue
		}

		select {
		case c.send <- f.data:
			sent++
		default:
			delete(h.clients, c)
			close(c.send)
			dropped++

			h.logf("BOARD: Disconnected slow client %s from %s", c.id, h.id)
		}
	}

	h.touch(func() {
		h.count = len(h.clients)
		h.relayed += sent
		h.dropped += dropped
	})
}

func (h *Hub) touch(update func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()
	update()
}

// join hands c to the hub. It reports false if the hub has shut down.
func (h *Hub) join(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unreg <- c:
	case <-h.quit:
	}
}

func (h *Hub) publish(f frame) bool {
	select {
	case h.inbound <- f:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

func (h *Hub) stopped() bool {
	select {
	case <-h.quit:
		return true
	default:
		return false
	}
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

// BoardStats describes one live board.
type BoardStats struct {
	ID         string    `json:"id"`
	Clients    int       `json:"clients"`
	Relayed    uint64    `json:"relayed"`
	Dropped    uint64    `json:"dropped"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

func (h *Hub) Stats() BoardStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return BoardStats{
		ID:         h.id,
		Clients:    h.count,
		Relayed:    h.relayed,
		Dropped:    h.dropped,
		CreatedAt:  h.createdAt,
		LastActive: h.lastActive,
	}
}
