package handlers

import (
	"strconv"

	"github.com/Zephyr-r/Zephyrus/internal/messaging"
	"github.com/Zephyr-r/Zephyrus/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MessageHandler struct {
	Engine *messaging.Engine
	Log    *zap.Logger
}

func NewMessageHandler(engine *messaging.Engine, log *zap.Logger) *MessageHandler {
	return &MessageHandler{Engine: engine, Log: log}
}

// GetChats - GET /api/messages/chats
func (h *MessageHandler) GetChats(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	conversations, err := h.Engine.Conversations(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"data": conversations})
}

// GetHistory - GET /api/messages/history/:userId
func (h *MessageHandler) GetHistory(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	// Read path is lenient: a malformed counterpart id yields an empty
	// history, not an error.
	counterpartID, err := strconv.Atoi(c.Params("userId"))
	if err != nil || counterpartID < 1 {
		return c.JSON(fiber.Map{"data": []models.MessageView{}})
	}

	history, err := h.Engine.History(c.UserContext(), userID, uint(counterpartID))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"data": history})
}

// SendMessage - POST /api/messages/send
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req messaging.SendInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	sent, err := h.Engine.Send(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": sent})
}

// MarkRead - PUT /api/messages/read/:senderId
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	senderID, err := strconv.Atoi(c.Params("senderId"))
	if err != nil || senderID < 1 {
		return c.JSON(fiber.Map{"message": "Messages marked as read"})
	}

	if err := h.Engine.MarkRead(c.UserContext(), userID, uint(senderID)); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Messages marked as read"})
}
