package server

import (
	"log/slog"

	"vacancyhub/internal/middleware"
	"vacancyhub/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedUpgrade rejects plain HTTP requests to the feed endpoint.
func (s *Server) FeedUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
}

// ModerationFeedHandler streams moderation events to the connected socket.
// Clients only receive; anything they send besides control frames is dropped.
// @Summary Moderation event feed
// @Description WebSocket; every submit, approve, reject and republish is pushed as JSON.
// @Tags moderation
// @Security ApiKeyAuth
// @Router /moderation/feed [get]
func (s *Server) ModerationFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		remote := conn.RemoteAddr().String()

		client, err := s.feedHub.Register(conn, remote)
		if err != nil {
			middleware.Logger.Warn("feed register failed", slog.String("remote", remote), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		if hello, err := notifications.Hello(s.feedHub.Count()); err == nil {
			s.feedHub.Send(client, hello)
		}
		client.Serve()
	})
}
