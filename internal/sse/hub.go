// Package sse streams committed ledger events to connected HTTP clients.
package sse

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/faceit-ledger/internal/model"
)

// Hub fans committed events out to SSE clients. Each client only gets
// the events its filter matches.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan model.Event
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub; call Run to start delivering
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "sse")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan model.Event, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered",
				slog.String("identity", client.filter.Identity.String()),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("sse client unregistered",
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case event := <-h.broadcast:
			h.deliver(event)

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("sse hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

func (h *Hub) deliver(event model.Event) {
	data, err := json.Marshal(NewPayload(event))
	if err != nil {
		h.logger.Error("sse failed to encode event",
			slog.String("tx_id", string(event.TxID)),
			slog.String("error", err.Error()))
		return
	}
	msg := formatMessage(string(event.TxID), string(event.Type), string(data))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.filter.Matches(event) {
			continue
		}
		select {
		case client.send <- msg:
		default:
			h.logger.Warn("sse message dropped - client buffer full",
				slog.String("tx_id", string(event.TxID)))
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues a committed event for delivery. It never blocks the
// caller; events are dropped when the hub is saturated.
func (h *Hub) Publish(event model.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full",
			slog.String("tx_id", string(event.TxID)))
	}
}

// Close shuts down the hub and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Payload is the JSON body of a streamed event
type Payload struct {
	Type      model.EventType `json:"type"`
	TxID      model.TxID      `json:"tx_id"`
	Identity  model.Address   `json:"identity"`
	Balance   model.Wei       `json:"balance"`
	Reward    model.Wei       `json:"reward"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewPayload flattens an event for the wire
func NewPayload(e model.Event) Payload {
	return Payload{
		Type:      e.Type,
		TxID:      e.TxID,
		Identity:  e.Identity,
		Balance:   e.Payload.Balance,
		Reward:    e.Payload.Reward,
		Timestamp: e.Timestamp,
	}
}

// formatMessage builds one SSE frame; every data line gets its own
// "data: " prefix
func formatMessage(id, eventName, data string) []byte {
	var b strings.Builder
	if id != "" {
		b.WriteString("id: " + id + "\n")
	}
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
