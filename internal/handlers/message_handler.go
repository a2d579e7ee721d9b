package handlers

import (
	"strconv"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/httpx"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type SendMessageRequest struct {
	ClientID string `json:"client_id"`
	Body     string `json:"body"`
}

// OpenRoom derives the canonical room id for the caller and a peer.
func (h *MessageHandler) OpenRoom(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}
	peerID := c.Params("peerId")

	roomID, err := h.messageService.OpenDirectRoom(c.Context(), userID, peerID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"room_id": roomID})
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}
	roomID := c.Params("roomId")

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	message, err := h.messageService.Append(c.Context(), roomID, userID, service.AppendInput{
		ClientID: req.ClientID,
		Body:     req.Body,
	})
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}
	roomID := c.Params("roomId")
	fromSenderID := c.Params("senderId")

	if err := h.messageService.MarkRead(c.Context(), roomID, userID, fromSenderID); err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}
	roomID := c.Params("roomId")
	messageID, err := strconv.ParseUint(c.Params("messageId"), 10, 32)
	if err != nil {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	if err := h.messageService.Delete(c.Context(), roomID, uint(messageID), userID); err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

func (h *MessageHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}
	roomID := c.Params("roomId")
	fromSenderID := c.Params("senderId")

	count, err := h.messageService.UnreadCount(c.Context(), roomID, userID, fromSenderID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}

func (h *MessageHandler) ListConversations(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	summaries, err := h.messageService.ListConversations(c.Context(), userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(summaries)
}
