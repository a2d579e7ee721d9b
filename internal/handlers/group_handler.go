package handlers

import (
	"strconv"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/httpx"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"member_ids"`
}

func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	group, err := h.groupService.Create(c.Context(), userID, req.Name, req.Description, req.MemberIDs)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

func (h *GroupHandler) GetMyGroups(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	groups, err := h.groupService.ListGroups(c.Context(), userID)
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(groups)
}

type MemberRequest struct {
	UserID string `json:"user_id"`
}

func (h *GroupHandler) AddMember(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	if err := h.groupService.AddMember(c.Context(), userID, c.Params("id"), req.UserID); err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *GroupHandler) RemoveMember(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	if err := h.groupService.RemoveMember(c.Context(), userID, c.Params("id"), c.Params("userId")); err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"status": "removed"})
}

func (h *GroupHandler) LeaveGroup(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	if err := h.groupService.Leave(c.Context(), userID, c.Params("id")); err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"status": "left"})
}

func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	if err := h.groupService.Delete(c.Context(), userID, c.Params("id")); err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

func (h *GroupHandler) GetGroupMembers(c *fiber.Ctx) error {
	if _, err := httpx.LocalString(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	members, err := h.groupService.MembersDetail(c.Context(), c.Params("id"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(members)
}

func (h *GroupHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}

	message, err := h.groupService.AppendMessage(c.Context(), c.Params("id"), userID, service.AppendInput{
		ClientID: req.ClientID,
		Body:     req.Body,
	})
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message.ToResponse())
}

func (h *GroupHandler) DeleteMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}
	messageID, err := strconv.ParseUint(c.Params("messageId"), 10, 32)
	if err != nil {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	if err := h.groupService.DeleteMessage(c.Context(), c.Params("id"), uint(messageID), userID); err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

func (h *GroupHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	if err := h.groupService.MarkRead(c.Context(), userID, c.Params("id")); err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *GroupHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := httpx.LocalString(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "missing_principal", "")
	}

	count, err := h.groupService.UnreadCount(c.Context(), userID, c.Params("id"))
	if err != nil {
		return httpx.FromError(c, err)
	}
	return c.JSON(fiber.Map{"unread": count})
}
