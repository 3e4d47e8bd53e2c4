// Package api assembles the fiber application: middleware stack and routes.
package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/legalease/backend/internal/accounts"
	"github.com/legalease/backend/internal/api/handlers"
	"github.com/legalease/backend/internal/cases"
	"github.com/legalease/backend/internal/chatbot"
	"github.com/legalease/backend/internal/metrics"
	"github.com/legalease/backend/internal/middleware/ratelimit"
	"github.com/legalease/backend/internal/middleware/security"
	"github.com/legalease/backend/internal/middleware/validation"
	"github.com/legalease/backend/internal/notify"
	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/pkg/config"
	"github.com/legalease/backend/pkg/logger"
)

type Deps struct {
	Store       storage.Store
	Engine      *chatbot.Engine
	Cases       *cases.Service
	Accounts    *accounts.Service
	Notifier    *notify.Notifier
	RateLimiter *ratelimit.RateLimiter
	// Redis is optional; nil skips the readiness check.
	Redis handlers.Pinger
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

func NewApp(cfg config.ServerConfig, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "legalease",
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit,
	})

	origins := "*"
	if len(cfg.AllowedOrigins) > 0 {
		origins = strings.Join(cfg.AllowedOrigins, ",")
	}

	app.Use(recover.New())
	if deps.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.UserIDHeader,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		IsDevelopment:  cfg.Development,
	}))

	chatbotHandler := handlers.NewChatbotHandler(deps.Engine)
	casesHandler := handlers.NewCasesHandler(deps.Cases)
	accountsHandler := handlers.NewAccountsHandler(deps.Accounts)
	chatHandler := handlers.NewChatHandler(deps.Notifier)
	healthHandler := handlers.NewHealthHandler(deps.Engine, deps.Store, deps.Redis)
	wsHandler := handlers.NewWebSocketHandler(deps.Engine)

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", wsHandler.Upgrade)
	app.Get("/ws/ask", websocket.New(wsHandler.HandleConnection))

	api := app.Group("/api/v1")

	api.Get("/health", healthHandler.Health)
	api.Get("/ready", healthHandler.Ready)

	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}
	api.Use(validation.Middleware(validation.Config{
		MaxQuestionLength: cfg.MaxQuestionLength,
		Logger:            logger.GetLogger(),
	}))

	api.Post("/ask", chatbotHandler.HandleAsk)
	api.Get("/records", chatbotHandler.ListRecords)
	api.Get("/history", chatbotHandler.GetHistory)
	api.Delete("/history", chatbotHandler.ClearHistory)
	api.Delete("/history/clear", chatbotHandler.ClearHistory)

	api.Post("/register/:role", accountsHandler.Register)
	api.Post("/login", accountsHandler.Login)

	api.Post("/bookings", casesHandler.CreateBooking)
	api.Post("/bookings/:id/status", casesHandler.UpdateBookingStatus)
	api.Get("/lawyers/:id", casesHandler.GetLawyer)

	api.Post("/chats", chatHandler.CreateChat)
	api.Post("/chats/:id/messages", chatHandler.PostMessage)
	api.Put("/users/:id/push-tokens", chatHandler.RegisterPushToken)

	return app
}
