package handlers

import (
	"errors"
	"log/slog"

	"github.com/axiestudio/axie-access/internal/dto"
	"github.com/axiestudio/axie-access/internal/middleware"
	"github.com/axiestudio/axie-access/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DeletionHandler struct {
	deletion *services.DeletionService
}

func NewDeletionHandler(deletion *services.DeletionService) *DeletionHandler {
	return &DeletionHandler{deletion: deletion}
}

// DeleteUserAccount removes the caller's account across every connected
// system. The target user ID in the body must match the authenticated
// caller; there is no admin bypass on this endpoint.
func (h *DeletionHandler) DeleteUserAccount(c *fiber.Ctx) error {
	callerID := middleware.GetUserID(c)
	if callerID == uuid.Nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.DeleteUserAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user_id",
		})
	}

	if err := h.deletion.DeleteAccount(c.UserContext(), callerID, targetID, "user_requested"); err != nil {
		switch {
		case errors.Is(err, services.ErrNotAccountOwner):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "You can only delete your own account",
			})
		case errors.Is(err, services.ErrProtectedAccount):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "This account cannot be deleted",
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		default:
			slog.Error("account deletion failed", "user_id", targetID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Account deletion failed",
			})
		}
	}

	return c.JSON(dto.DeleteUserAccountResponse{Success: true})
}
