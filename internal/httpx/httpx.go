package httpx

import (
	"fmt"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/apperrors"
	"github.com/gofiber/fiber/v2"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	if v := c.Locals("requestid"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func Error(c *fiber.Ctx, status int, code string, message string) error {
	if message == "" {
		message = "Request failed"
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID(c),
	})
}

func BadRequest(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

func Unauthorized(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusUnauthorized, code, message)
}

func Forbidden(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusForbidden, code, message)
}

func Internal(c *fiber.Ctx, code string) error {
	return Error(c, fiber.StatusInternalServerError, code, "Internal server error")
}

// FromError maps a service error kind to a transport response. Messages
// stay generic; internal storage errors are never echoed to clients.
func FromError(c *fiber.Ctx, err error) error {
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return Error(c, fiber.StatusNotFound, "not_found", "Unavailable")
	case apperrors.KindPermissionDenied:
		return Error(c, fiber.StatusForbidden, "permission_denied", "Not allowed")
	case apperrors.KindInvalidArgument:
		return BadRequest(c, "invalid_argument", "Invalid request")
	case apperrors.KindConflict:
		return Error(c, fiber.StatusConflict, "conflict", "Conflict, retry")
	default:
		return Internal(c, "internal_error")
	}
}

// LocalString extracts a string local set by the auth middleware.
func LocalString(c *fiber.Ctx, key string) (string, error) {
	v := c.Locals(key)
	if v == nil {
		return "", fmt.Errorf("missing local %s", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("invalid local %s", key)
	}
	return s, nil
}
