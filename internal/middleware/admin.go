package middleware

import (
	"strings"

	"github.com/axiestudio/axie-access/internal/config"
	"github.com/axiestudio/axie-access/internal/dto"
	"github.com/axiestudio/axie-access/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminRequired allows through users listed in ADMIN_EMAILS or carrying
// the admin role in the database. Must run behind JWTProtected.
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	adminEmails := make(map[string]struct{})
	for _, e := range cfg.AdminEmailList() {
		adminEmails[strings.ToLower(e)] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		email := GetEmail(c)
		userID := GetUserID(c)
		if email == "" && userID == uuid.Nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if _, ok := adminEmails[strings.ToLower(email)]; ok {
			return c.Next()
		}

		if userID != uuid.Nil {
			var user models.User
			if err := db.First(&user, "id = ?", userID).Error; err == nil && user.Role == "admin" {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}
