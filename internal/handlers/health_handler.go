package handlers

import (
	"time"

	"github.com/axiestudio/axie-access/internal/database"
	"github.com/axiestudio/axie-access/internal/dto"
	"github.com/gofiber/fiber/v2"
)

func Health(c *fiber.Ctx) error {
	dbStatus := "ok"
	status := "ok"
	code := fiber.StatusOK
	if err := database.Ping(); err != nil {
		dbStatus = "unreachable"
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
