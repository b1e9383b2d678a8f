package routes

import (
	"time"

	"github.com/axiestudio/axie-access/internal/config"
	"github.com/axiestudio/axie-access/internal/handlers"
	"github.com/axiestudio/axie-access/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	accessHandler *handlers.AccessHandler,
	accountHandler *handlers.AccountHandler,
	deletionHandler *handlers.DeletionHandler,
	webhookHandler *handlers.WebhookHandler,
	adminHandler *handlers.AdminHandler,
) {
	// Stripe signs the raw body, so the webhook stays outside the /api
	// group and its rate limiter. Stripe's retry bursts would trip a
	// per-IP limit and the signature is the real gate anyway.
	app.Post("/webhook", webhookHandler.HandleStripe)

	// Product-facing account endpoints kept at the root for frontend
	// compatibility.
	app.Post("/axie-studio-account", middleware.JWTProtected(cfg), accountHandler.ManageWorkspaceAccount)
	app.Post("/delete-user-account", middleware.JWTProtected(cfg), deletionHandler.DeleteUserAccount)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", handlers.Health)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected routes (JWT required) - applied per route so the JWT
	// middleware never touches the public ones
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Get("/access/status", middleware.JWTProtected(cfg), accessHandler.Status)

	// Admin (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Post("/sweep", adminHandler.RunSweep)
}
