package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/labvault/backend/internal/auth"
	"github.com/labvault/backend/internal/config"
	"github.com/labvault/backend/internal/database"
	"github.com/labvault/backend/internal/handlers"
	"github.com/labvault/backend/internal/middleware"
	"github.com/labvault/backend/internal/services"
	"github.com/labvault/backend/pkg/logger"
)

func main() {
	logger.Init()

	cfg := config.Load()

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	// The process must not serve without secret material.
	settings, err := database.LoadSettings(db)
	if err != nil {
		log.Fatalf("could not read settings: %v", err)
	}

	passwords := auth.NewPasswordService(settings.PasswordSalt)
	tokens := auth.NewTokenService(settings.JWTSecret)
	events := services.NewEventService(db)

	registry := auth.NewRegistry(db, events)
	registry.Register(auth.StrategyLocal, auth.NewLocalStrategy(db, passwords))
	registry.Reconfigure(settings)

	if err := database.EnsureAdminUser(db, passwords.Hash); err != nil {
		log.Fatalf("could not bootstrap admin user: %v", err)
	}

	authHandler := handlers.NewAuthHandler(db, registry, tokens)
	usersHandler := handlers.NewUsersHandler(db, passwords, events)
	apiTokensHandler := handlers.NewAPITokensHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(registry)

	app := fiber.New()
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	authRoutes := app.Group("/api/auth")

	authRoutes.Get("/login", authHandler.AvailableStrategies)
	authRoutes.Post("/login/local", authHandler.LoginLocal)
	authRoutes.Get("/login/google", authHandler.GoogleRedirect)
	authRoutes.Get("/login/google/callback", authHandler.GoogleCallback)
	authRoutes.Get("/login/google/settings", authMiddleware.RequireAuth, middleware.AdminOnly, authHandler.GoogleSettingsGet)
	authRoutes.Post("/login/google/settings", authMiddleware.RequireAuth, middleware.AdminOnly, authHandler.GoogleSettingsUpdate)

	authRoutes.Get("/self", authMiddleware.RequireAuth, authHandler.Self)

	authRoutes.Get("/users", authMiddleware.RequireAuth, usersHandler.List)
	authRoutes.Post("/users", authMiddleware.RequireAuth, middleware.AdminOnly, usersHandler.Create)
	authRoutes.Get("/users/:id", authMiddleware.RequireAuth, usersHandler.Get)
	authRoutes.Put("/users/:id", authMiddleware.RequireAuth, middleware.SelfOrAdmin, usersHandler.Update)
	authRoutes.Delete("/users/:id", authMiddleware.RequireAuth, middleware.AdminOnly, usersHandler.Delete)

	authRoutes.Get("/users/:id/api-tokens", authMiddleware.RequireAuth, middleware.SelfOrAdmin, apiTokensHandler.List)
	authRoutes.Post("/users/:id/api-tokens", authMiddleware.RequireAuth, middleware.SelfOrAdmin, apiTokensHandler.Create)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
