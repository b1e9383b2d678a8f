package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GetUserID extracts the authenticated user ID from the verified JWT.
// Returns uuid.Nil when the route is not behind JWTProtected or the
// subject claim is malformed.
func GetUserID(c *fiber.Ctx) uuid.UUID {
	claims := tokenClaims(c)
	if claims == nil {
		return uuid.Nil
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// GetEmail extracts the authenticated user's email from the verified JWT.
func GetEmail(c *fiber.Ctx) string {
	claims := tokenClaims(c)
	if claims == nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}

func tokenClaims(c *fiber.Ctx) jwt.MapClaims {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}
