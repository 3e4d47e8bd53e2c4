package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legalease/backend/internal/chatbot"
	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/pkg/logger"
)

// Pinger is satisfied by the redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	engine *chatbot.Engine
	store  storage.Store
	redis  Pinger
}

// NewHealthHandler builds the health endpoints. redis may be nil.
func NewHealthHandler(engine *chatbot.Engine, store storage.Store, redis Pinger) *HealthHandler {
	return &HealthHandler{engine: engine, store: store, redis: redis}
}

// Health reports liveness plus catalogue size. It answers 200 even when the
// catalogue cannot be read.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	records := -1
	if docs, err := h.store.GetAll(c.UserContext(), storage.CollectionLegalDataset); err == nil {
		records = len(docs)
	} else {
		logger.Warn("Health check could not read catalogue", zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"status":             "healthy",
		"time":               time.Now().Unix(),
		"records":            records,
		"providerConfigured": h.engine.ProviderConfigured(),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	checks := fiber.Map{"store": "ok"}
	ready := true

	if _, err := h.store.GetAll(ctx, storage.CollectionLegalDataset); err != nil {
		checks["store"] = err.Error()
		ready = false
	}

	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			ready = false
		}
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"checks": checks,
		})
	}

	return c.JSON(fiber.Map{
		"status": "ready",
		"checks": checks,
	})
}
