package handler

import (
	"study-assistant-be/internal/pkg/logger"
	"study-assistant-be/internal/pkg/serverutils"
	internalWS "study-assistant-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventHandler streams registry and conversation events to session clients over websocket.
type EventHandler struct {
	hub    *internalWS.Hub
	auth   fiber.Handler
	logger logger.ILogger
}

func NewEventHandler(hub *internalWS.Hub, auth fiber.Handler, log logger.ILogger) *EventHandler {
	return &EventHandler{hub: hub, auth: auth, logger: log}
}

// ServeWs upgrades the request. The token is checked by the auth middleware, which also
// accepts it as a query parameter since browsers cannot set headers on upgrades.
func (h *EventHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	sessionID := serverutils.SessionID(c)
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("EVENTS", "WebSocket session started", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info("EVENTS", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

func (h *EventHandler) RegisterRoutes(router fiber.Router) {
	events := router.Group("/events/v1")
	events.Use(h.auth)
	events.Get("/ws", h.ServeWs)
}
