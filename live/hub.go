package live

import (
	"sync"
)

// Client is one connected websocket listener. Room is the user id the client
// subscribed to ("*" receives every event).
type Client struct {
	Send chan []byte
	Room string
}

type broadcastMsg struct {
	Room string
	Data []byte
}

// Hub fans wallet/transaction events out to connected clients. Delivery is
// best-effort: a client that cannot keep up is dropped, and broadcasting with
// no listeners is a no-op.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if conns := h.rooms[c.Room]; conns != nil {
				if conns[c] {
					delete(conns, c)
					close(c.Send)
				}
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			h.deliver(m.Room, m.Data)
			if m.Room != "*" {
				h.deliver("*", m.Data)
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for room, conns := range h.rooms {
				for c := range conns {
					close(c.Send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return
		}
	}
}

// deliver assumes h.mu is held.
func (h *Hub) deliver(room string, data []byte) {
	for c := range h.rooms[room] {
		select {
		case c.Send <- data:
		default:
			close(c.Send)
			delete(h.rooms[room], c)
		}
	}
}

// Broadcast queues data for every client in room (and the wildcard room).
// Never blocks the caller; events are dropped when the hub is saturated.
func (h *Hub) Broadcast(room string, data []byte) {
	if room == "" {
		room = "*"
	}
	select {
	case h.broadcast <- broadcastMsg{Room: room, Data: data}:
	default:
	}
}

func (h *Hub) Register(c *Client) {
	h.register <- c
}

func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

func (h *Hub) Stop() {
	close(h.done)
}
