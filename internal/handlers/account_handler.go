package handlers

import (
	"errors"
	"log/slog"

	"github.com/axiestudio/axie-access/internal/dto"
	"github.com/axiestudio/axie-access/internal/middleware"
	"github.com/axiestudio/axie-access/internal/services"
	"github.com/axiestudio/axie-access/internal/workspace"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// ManageWorkspaceAccount dispatches create, delete and reactivate actions
// for the caller's workspace account. Identity comes from the JWT; the
// body only carries the action and, for create, the desired password.
func (h *AccountHandler) ManageWorkspaceAccount(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	email := middleware.GetEmail(c)
	if userID == uuid.Nil || email == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.WorkspaceAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	switch req.Action {
	case dto.AccountActionCreate:
		if req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Password is required for account creation",
			})
		}
		result, err := h.accounts.Create(c.UserContext(), userID, email, req.Password)
		if err != nil {
			return h.mapWorkspaceError(c, userID, err)
		}
		return c.JSON(dto.WorkspaceAccountResponse{
			Success:       true,
			UserID:        userID.String(),
			Email:         email,
			AlreadyExists: result.AlreadyExists,
		})

	case dto.AccountActionDelete:
		if err := h.accounts.Deactivate(c.UserContext(), userID, email); err != nil {
			return h.mapWorkspaceError(c, userID, err)
		}
		return c.JSON(dto.WorkspaceAccountResponse{
			Success: true, UserID: userID.String(), Email: email,
		})

	case dto.AccountActionReactivate:
		if err := h.accounts.Reactivate(c.UserContext(), userID, email); err != nil {
			return h.mapWorkspaceError(c, userID, err)
		}
		return c.JSON(dto.WorkspaceAccountResponse{
			Success: true, UserID: userID.String(), Email: email,
		})

	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Unknown action; expected create, delete or reactivate",
		})
	}
}

func (h *AccountHandler) mapWorkspaceError(c *fiber.Ctx, userID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, workspace.ErrAccessRequired):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error:   true,
			Message: "An active subscription or trial is required",
			Code:    "ACCESS_REQUIRED",
		})
	case errors.Is(err, workspace.ErrUpstream):
		slog.Error("workspace api unavailable", "user_id", userID, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Workspace service is temporarily unavailable",
		})
	default:
		slog.Error("workspace account operation failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Workspace account operation failed",
		})
	}
}
