package notifications

import (
	"context"
	"errors"
	"sync"

	"vacancyhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const maxFeedConns = 500

var (
	ErrFeedFull   = errors.New("feed connection limit reached")
	ErrFeedClosed = errors.New("feed is shut down")
)

// FeedHub fans moderation events out to every connected moderator socket.
type FeedHub struct {
	mu      sync.RWMutex
	clients map[*FeedClient]struct{}
	limit   int
	closed  bool
}

func NewFeedHub() *FeedHub {
	return &FeedHub{clients: make(map[*FeedClient]struct{}), limit: maxFeedConns}
}

func (h *FeedHub) Name() string { return "moderation feed" }

// Register adds a connection. conn may be nil for clients that are drained
// through Outbox instead of Serve.
func (h *FeedHub) Register(conn *websocket.Conn, remote string) (*FeedClient, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrFeedClosed
	}
	if len(h.clients) >= h.limit {
		return nil, ErrFeedFull
	}

	c := newFeedClient(h, conn, remote)
	h.clients[c] = struct{}{}
	observability.FeedConnections.Inc()
	return c, nil
}

// Unregister releases c. Safe to call more than once.
func (h *FeedHub) Unregister(c *FeedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.release(c, websocket.CloseNormalClosure, "")
}

func (h *FeedHub) release(c *FeedClient, code int, text string) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.closeCode, c.closeText = code, text
	close(c.out)
	observability.FeedConnections.Dec()
}

// Count is the number of live connections.
func (h *FeedHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send queues frame for a single client. It reports false when c is gone or lagging.
func (h *FeedHub) Send(c *FeedClient, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	return c.enqueue(frame)
}

// BroadcastAll queues payload on every connection and returns how many accepted it.
func (h *FeedHub) BroadcastAll(payload string) int {
	data := []byte(payload)
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients {
		if c.enqueue(data) {
			delivered++
		}
	}
	return delivered
}

// StartWiring subscribes the hub to the event bus until ctx ends.
func (h *FeedHub) StartWiring(ctx context.Context, bus *EventBus) error {
	return bus.StartSubscriber(ctx, func(payload string) { h.BroadcastAll(payload) })
}

// Shutdown refuses new clients and tells the connected ones the server is going away.
func (h *FeedHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.release(c, websocket.CloseGoingAway, "Server shutting down")
	}
	return nil
}
