package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"polly-backend/logging"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Message is pushed to connected clients
type Message struct {
	Type  string   `json:"type"`
	Paths []string `json:"paths"`
}

// Client is one connected browser
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the connected clients and tells them when views go stale
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	log        *logrus.Entry
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logging.Module("websocket"),
	}
}

// Run processes registrations until ctx is done, then drops every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.log.WithField("clients", total).Debug("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.log.Debug("client unregistered")
		}
	}
}

// remove must be called with mu held
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Revalidate tells every client that paths are stale. It implements
// service.Revalidator.
func (h *Hub) Revalidate(_ context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}

	payload, err := json.Marshal(Message{Type: "revalidate", Paths: paths})
	if err != nil {
		h.log.WithError(err).Error("failed to encode revalidation")
		return
	}
	h.Broadcast(payload)
}

// Broadcast queues payload for every client. Clients whose buffer is full are dropped.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.remove(client)
		}
	}
	h.log.WithField("clients", len(h.clients)).Debug("broadcast sent")
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RegisterClient adds client to the hub. After Run has returned the client is closed instead.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// UnregisterClient removes client from the hub
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
