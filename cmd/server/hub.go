package main

import (
	"sync"

	"github.com/gorilla/websocket"
)

// hub fans regime results out to connected websocket clients.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]struct{})}
}

// add registers a client connection.
func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// remove unregisters and closes a client connection.
func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
	}
}

// broadcast sends v as JSON to every client, dropping clients on write error.
func (h *hub) broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if err := c.WriteJSON(v); err != nil {
			delete(h.clients, c)
			c.Close()
		}
	}
}
