package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legalease/backend/pkg/apperr"
	"github.com/legalease/backend/pkg/logger"
)

// respondError writes {"error": message} with the status for err's kind.
// Internal causes are logged, never returned.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return c.Status(kind.HTTPStatus()).JSON(fiber.Map{
		"error": apperr.PublicMessage(err),
	})
}

func badBody(c *fiber.Ctx, err error) error {
	logger.Debug("Failed to parse request body", zap.Error(err))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}
