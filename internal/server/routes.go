package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Ruthe06/cloudsharefiles/internal/signaling"
)

// Configure the websocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024, // 64 KB
	WriteBufferSize: 64 * 1024, // 64 KB

	// Browser peers arrive from arbitrary origins; room codes are the
	// only admission control this system has.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebsocket upgrades the connection and hands it to the hub.
func (s *Server) handleWebsocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return nil
	}

	client := &signaling.Client{
		ID:   uuid.NewString(),
		Hub:  s.hub,
		Conn: conn,
		Send: make(chan *signaling.Message, 256),
	}

	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
	return nil
}
