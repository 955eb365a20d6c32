// Package feed fans session events out to live admin viewers.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"

	"giantylive-web/internal/event"
)

const clientBuffer = 32

// Client is one connected viewer. Messages are pre-encoded JSON events.
type Client struct {
	send chan []byte
}

func (c *Client) Messages() <-chan []byte {
	return c.send
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	bus        event.Bus
	done       chan struct{}
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		bus:        bus,
		done:       make(chan struct{}),
	}
}

// Join registers a new client. It blocks until Run accepts it or ctx ends.
func (h *Hub) Join(ctx context.Context) (*Client, bool) {
	client := &Client{send: make(chan []byte, clientBuffer)}
	select {
	case h.register <- client:
		return client, true
	case <-ctx.Done():
		return nil, false
	case <-h.done:
		return nil, false
	}
}

func (h *Hub) Leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()
	defer close(h.done)
	defer func() {
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			message, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to marshal event", "error", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow viewer; drop it rather than stall the feed.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}
