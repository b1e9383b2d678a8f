package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/axiestudio/axie-access/internal/billing"
	"github.com/axiestudio/axie-access/internal/config"
	"github.com/axiestudio/axie-access/internal/database"
	"github.com/axiestudio/axie-access/internal/handlers"
	"github.com/axiestudio/axie-access/internal/logging"
	"github.com/axiestudio/axie-access/internal/middleware"
	"github.com/axiestudio/axie-access/internal/routes"
	"github.com/axiestudio/axie-access/internal/services"
	"github.com/axiestudio/axie-access/internal/store"
	"github.com/axiestudio/axie-access/internal/sweep"
	"github.com/axiestudio/axie-access/internal/workspace"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.StripeWebhookSecret == "" {
		slog.Warn("STRIPE_WEBHOOK_SECRET not set; webhook endpoint will reject all events")
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Stores
	users := store.NewUsers(database.DB)
	trials := store.NewTrials(database.DB)
	subs := store.NewSubscriptions(database.DB)
	teams := store.NewTeams(database.DB)
	history := store.NewDeletionHistory(database.DB)
	wsAccounts := store.NewWorkspaceAccounts(database.DB)
	tokens := store.NewRefreshTokens(database.DB)

	// External clients
	billingClient := billing.NewClient(cfg.StripeSecretKey)
	workspaceClient := workspace.NewClient(cfg.WorkspaceAPIURL, cfg.WorkspaceAPIKey)

	// Services
	authService := services.NewAuthService(database.DB, cfg, trials, history)
	accessService := services.NewAccessService(cfg, trials, subs, teams, history)
	billingSync := services.NewBillingSyncService(billingClient, subs, trials, users)
	accountService := services.NewAccountService(accessService, workspaceClient, wsAccounts)
	deletionService := services.NewDeletionService(
		users, trials, subs, history, wsAccounts, tokens, teams,
		workspaceClient, billingClient, cfg.ProtectedAdminEmail,
	)

	// Lifecycle sweeper
	sweeper := sweep.NewSweeper(trials, deletionService, cfg.SweepInterval)
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go sweeper.Run(sweepCtx)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	accessHandler := handlers.NewAccessHandler(accessService)
	accountHandler := handlers.NewAccountHandler(accountService)
	deletionHandler := handlers.NewDeletionHandler(deletionService)
	webhookHandler := handlers.NewWebhookHandler(cfg.StripeWebhookSecret, billingSync)
	adminHandler := handlers.NewAdminHandler(sweeper)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, authHandler, accessHandler, accountHandler, deletionHandler, webhookHandler, adminHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	stopSweeper()
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
