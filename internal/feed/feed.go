package feed

import (
	"context"

	"github.com/vovakirdan/pulsechat-server/internal/chat"
)

// Event is delivered to feed subscribers for every message accepted
// into the log, including sweeper departure notices.
type Event struct {
	Message chat.Message
}

// Client is a connected feed observer identified by a claimed name.
// Events the observer is not entitled to see are filtered out before
// delivery.
type Client struct {
	ID     string
	Name   string
	Events chan Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id, name string) *Client {
	return &Client{
		ID:     id,
		Name:   name,
		Events: make(chan Event, 8),
	}
}

// Hub fans messages out to connected clients. All client bookkeeping
// happens inside Run, so no locking is needed.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	messages   chan chat.Message
	clients    map[*Client]struct{}
	done       chan struct{}
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		messages:   make(chan chat.Message, 64),
		clients:    make(map[*Client]struct{}),
		done:       make(chan struct{}),
	}
}

// Register adds a client to the hub. No-op once the hub has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client and closes its event channel. No-op
// once the hub has stopped; Run already closed every client channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish enqueues a message for fanout. It never blocks the caller;
// if the hub is saturated the message is dropped for live delivery
// (it is already in the log, readers catch up over the REST surface).
func (h *Hub) Publish(msg chat.Message) {
	select {
	case h.messages <- msg:
	default:
	}
}

// Run processes registrations and fanout until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				close(client.Events)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Events)
			}
		case msg := <-h.messages:
			h.broadcast(msg)
		}
	}
}

// broadcast delivers msg to every client entitled to see it.
func (h *Hub) broadcast(msg chat.Message) {
	for client := range h.clients {
		if !chat.Visible(msg, client.Name) {
			continue
		}
		select {
		case client.Events <- Event{Message: msg}:
		default:
			// Drop if slow consumer.
		}
	}
}
