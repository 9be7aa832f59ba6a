package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"retailsight/internal/operations"
)

// Hub fans pipeline progress events out to every connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	running    bool

	logger *slog.Logger
}

// NewHub creates a hub; call Start before accepting connections.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket_hub")),
	}
}

// Start launches the hub loop.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()
	go h.run()
}

// Shutdown stops the hub loop and closes every client.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()
	close(h.quit)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client registered",
				slog.String("client_id", client.id),
				slog.Int("clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client unregistered",
				slog.String("client_id", client.id),
				slog.Int("clients", count))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than stall the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastProgress satisfies operations.Broadcaster: run and stage
// transitions reach every subscriber as JSON frames.
func (h *Hub) BroadcastProgress(event operations.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal progress event",
			slog.String("run_id", event.RunID),
			slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
