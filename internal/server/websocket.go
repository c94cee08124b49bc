package server

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	ws "github.com/nfrund/topichub/internal/websocket"
)

// serveWebSocket upgrades the request and subscribes the connection to every
// ?topic= given. Text frames sent by the client are broadcast to those
// topics, excluding the client itself.
func (s *Server) serveWebSocket(c echo.Context) error {
	names := c.QueryParams()["topic"]
	if len(names) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one topic query parameter is required")
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true, // In production, check origin.
	})
	if err != nil {
		s.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
		return err
	}

	client := ws.NewClient(uuid.NewString(), conn, s.mailboxSize)
	ctx := c.Request().Context()

	for _, name := range names {
		if err := s.registry.Subscribe(ctx, client, name); err != nil {
			s.logger.Error("WebSocket subscribe failed", "endpoint", client.ID(), "topic", name, "error", err)
			client.Close()
			return nil
		}
	}
	s.logger.Info("WebSocket endpoint subscribed", "endpoint", client.ID(), "topics", names)

	go client.WritePump()
	client.ReadPump(ctx, func(message []byte) {
		for _, name := range names {
			if err := s.registry.BroadcastFrom(ctx, client.ID(), name, message); err != nil {
				s.logger.Warn("WebSocket broadcast failed", "endpoint", client.ID(), "topic", name, "error", err)
			}
		}
	})
	// The registry notices Done and removes the client from its topics.
	return nil
}
