package notifications

import (
	"log/slog"
	"sync/atomic"
	"time"

	"vacancyhub/internal/middleware"
	"vacancyhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10 // must stay below feedPongWait

	// Moderators only receive; inbound frames are control frames or noise.
	feedReadLimit = 512
	feedBuffer    = 64
)

// FeedClient is one moderator socket subscribed to the feed.
type FeedClient struct {
	hub    *FeedHub
	conn   *websocket.Conn
	remote string
	out    chan []byte

	// Set by the hub before it closes out; read by the write loop afterwards.
	closeCode int
	closeText string

	dropped atomic.Int64
}

func newFeedClient(hub *FeedHub, conn *websocket.Conn, remote string) *FeedClient {
	return &FeedClient{
		hub:       hub,
		conn:      conn,
		remote:    remote,
		out:       make(chan []byte, feedBuffer),
		closeCode: websocket.CloseNormalClosure,
	}
}

func (c *FeedClient) Remote() string { return c.remote }

// Dropped is the number of frames skipped because the client lagged behind.
func (c *FeedClient) Dropped() int64 { return c.dropped.Load() }

// Outbox exposes the queued frames. It is closed when the hub lets go of the client.
func (c *FeedClient) Outbox() <-chan []byte { return c.out }

// Serve pumps frames to the socket until either side closes, then returns
// once both directions are done with the connection.
func (c *FeedClient) Serve() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writeLoop()
	}()
	c.readLoop()
	<-done
}

func (c *FeedClient) readLoop() {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(feedReadLimit)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	}
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				middleware.Logger.Warn("feed read failed",
					slog.String("remote", c.remote), slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *FeedClient) writeLoop() {
	ping := time.NewTicker(feedPingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeText))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				middleware.Logger.Debug("feed write failed",
					slog.String("remote", c.remote), slog.String("error", err.Error()))
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue never blocks. Callers hold the hub lock, so out cannot be closed underneath.
func (c *FeedClient) enqueue(frame []byte) bool {
	select {
	case c.out <- frame:
		return true
	default:
		if c.dropped.Add(1) == 1 {
			middleware.Logger.Warn("feed client lagging, dropping events", slog.String("remote", c.remote))
		}
		observability.FeedDropped.Inc()
		return false
	}
}
