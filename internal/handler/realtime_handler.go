package handler

import (
	"stallpick-be/internal/dto"
	"stallpick-be/internal/pkg/logger"
	"stallpick-be/internal/pkg/serverutils"
	"stallpick-be/internal/service"
	internalWS "stallpick-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type RealtimeHandler struct {
	resolver service.ISessionResolver
	hub      *internalWS.Hub
	logger   logger.ILogger
}

func NewRealtimeHandler(resolver service.ISessionResolver, hub *internalWS.Hub, log logger.ILogger) *RealtimeHandler {
	return &RealtimeHandler{
		resolver: resolver,
		hub:      hub,
		logger:   log,
	}
}

func (h *RealtimeHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/sessions/:sessionId")
	g.Get("/ws", h.ServeWs)
	g.Post("/broadcast", h.Broadcast)
}

// ServeWs upgrades the request and subscribes it to the session.
func (h *RealtimeHandler) ServeWs(c *fiber.Ctx) error {
	sessionId, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	if _, err := h.resolver.Get(c.UserContext(), sessionId); err != nil {
		return err
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("RealtimeHandler", "WebSocket session started", map[string]interface{}{"session_id": sessionId.String()})
		internalWS.ServeWs(h.hub, conn, sessionId)
		h.logger.Info("RealtimeHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionId.String()})
	})(c)
}

// Broadcast sends an ephemeral signal to every subscriber of the session.
func (h *RealtimeHandler) Broadcast(c *fiber.Ctx) error {
	sessionId, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	var req dto.BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := h.hub.Broadcast(sessionId, req.Event, req.Payload); err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse[any]("Broadcast sent", nil))
}
