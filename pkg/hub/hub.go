// Package hub provides a thread-safe websocket broadcast hub for navigation
// telemetry, using the idiomatic Go channel-based fan-out pattern. The
// lifecycle's event path must never block the control loop, so every send
// into the hub is non-blocking and slow clients are dropped.
package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/StatML/mrpt/internal/log"
)

// Hub maintains the set of active clients for one telemetry topic and
// broadcasts messages to them.
type Hub struct {
	topic string

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// mu guards clients for the read-only count from outside the Run loop.
	mu sync.RWMutex
}

// New creates a hub for a topic ("events", "status").
func New(topic string) *Hub {
	return &Hub{
		topic:      topic,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run drives the hub until ctx is done. Call in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	logger := log.Component("hub").With("topic", h.topic)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			logger.Info("client connected", "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			logger.Info("client disconnected", "remaining", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client buffer full: too slow, drop it.
					close(client.send)
					delete(h.clients, client)
					logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for all connected clients without blocking.
// When the hub itself is saturated the message is dropped; telemetry is
// lossy by design, the control path is not allowed to wait for it.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		log.Component("hub").Warn("broadcast channel full, dropping message", "topic", h.topic)
	}
}

// BroadcastJSON encodes v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(data)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
