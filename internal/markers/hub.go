package markers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is one connected stream consumer.
type Client struct {
	ID       uuid.UUID
	Outbound chan Sample
}

// Hub fans samples out to connected stream consumers. A slow consumer loses
// samples instead of delaying the experiment.
type Hub struct {
	mu      sync.RWMutex
	log     *zap.Logger
	buffer  int
	closed  bool
	clients map[*Client]struct{}
}

func NewHub(log *zap.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		log:     log.Named("marker_hub"),
		buffer:  buffer,
		clients: make(map[*Client]struct{}),
	}
}

// Subscribe registers a consumer. It returns nil once the hub is closed.
func (h *Hub) Subscribe() *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	c := &Client{ID: uuid.New(), Outbound: make(chan Sample, h.buffer)}
	h.clients[c] = struct{}{}
	h.log.Debug("Marker consumer subscribed", zap.String("clientID", c.ID.String()))
	return c
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Outbound)
	h.log.Debug("Marker consumer unsubscribed", zap.String("clientID", c.ID.String()))
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Publish(_ context.Context, s Sample) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	for c := range h.clients {
		select {
		case c.Outbound <- s:
		default:
			h.log.Warn("Dropping marker sample; consumer buffer full", zap.String("clientID", c.ID.String()))
		}
	}
	return nil
}

// Close disconnects every consumer.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		close(c.Outbound)
		delete(h.clients, c)
	}
	return nil
}
