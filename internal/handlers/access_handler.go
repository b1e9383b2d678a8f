package handlers

import (
	"log/slog"

	"github.com/axiestudio/axie-access/internal/dto"
	"github.com/axiestudio/axie-access/internal/middleware"
	"github.com/axiestudio/axie-access/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AccessHandler struct {
	access *services.AccessService
}

func NewAccessHandler(access *services.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// Status resolves the caller's current access level. This is the read
// the frontend polls to decide what to render; it never mutates state.
func (h *AccessHandler) Status(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	email := middleware.GetEmail(c)
	if userID == uuid.Nil || email == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	status, err := h.access.Resolve(userID, email)
	if err != nil {
		slog.Error("access resolution failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to resolve access status",
		})
	}
	return c.JSON(status)
}
