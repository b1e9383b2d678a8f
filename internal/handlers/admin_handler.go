package handlers

import (
	"log/slog"

	"github.com/axiestudio/axie-access/internal/dto"
	"github.com/axiestudio/axie-access/internal/sweep"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	sweeper *sweep.Sweeper
}

func NewAdminHandler(sweeper *sweep.Sweeper) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// RunSweep triggers one lifecycle pass outside the ticker schedule.
// Useful after fixing bad billing data without waiting for the next tick.
func (h *AdminHandler) RunSweep(c *fiber.Ctx) error {
	expired, deleted, err := h.sweeper.RunOnce(c.UserContext())
	if err != nil {
		slog.Error("manual sweep failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Sweep failed",
		})
	}
	return c.JSON(dto.SweepResponse{
		ExpiredTrials:     expired,
		DeletionsExecuted: deleted,
	})
}
