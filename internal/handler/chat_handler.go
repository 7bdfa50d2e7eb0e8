package handler

import (
	"time"

	"ai-partner-be/internal/dto"
	"ai-partner-be/internal/model"
	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/internal/service"
	internalWS "ai-partner-be/internal/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ChatHandler exposes the pipeline over both transports: the bidirectional
// websocket channel and a plain request/response endpoint.
type ChatHandler struct {
	chatService service.IChatService
	hub         *internalWS.Hub
	validate    *validator.Validate
	logger      logger.ILogger
}

func NewChatHandler(chatService service.IChatService, hub *internalWS.Hub, log logger.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		hub:         hub,
		validate:    validator.New(),
		logger:      log,
	}
}

// ServeWs upgrades the connection and hands it to the hub. The connection is
// anonymous: this is a single-user system with no auth layer.
func (h *ChatHandler) ServeWs(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ChatHandler", "Starting WebSocket session", nil)
			internalWS.ServeWs(h.hub, conn, h.chatService)
			h.logger.Info("ChatHandler", "WebSocket session ended", nil)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// PostChat runs one turn over plain HTTP. Progress events still go out to
// websocket clients; the final answer comes back as the response body.
func (h *ChatHandler) PostChat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	response := h.chatService.Process(c.UserContext(), model.UserMessage{
		Type:      req.Type,
		Content:   req.Content,
		Timestamp: req.Timestamp,
	})

	return c.JSON(dto.ChatResponse{
		Type:      response.Type,
		Role:      response.Role,
		Content:   response.Content,
		Timestamp: response.Timestamp,
	})
}

// Health reports liveness and the size of the live connection set.
func (h *ChatHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Status:           "ok",
		Timestamp:        time.Now().Format(time.RFC3339),
		ConnectedClients: h.hub.ClientCount(),
	})
}

// RegisterRoutes registers the chat routes.
func (h *ChatHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/ws", h.ServeWs)

	api := app.Group("/api")
	api.Post("/chat", h.PostChat)
}
