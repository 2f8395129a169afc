package handlers

import (
	"errors"

	"github.com/Zephyr-r/Zephyrus/internal/market"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps domain errors onto the HTTP surface. Validation and
// state errors keep their message; anything unexpected is logged and
// hidden behind a generic 500.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var code int
	switch {
	case errors.Is(err, market.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, market.ErrForbidden):
		code = fiber.StatusForbidden
	case errors.Is(err, market.ErrConflict),
		errors.Is(err, market.ErrInvalidState),
		errors.Is(err, market.ErrInvalidInput),
		errors.Is(err, market.ErrSelfTransaction):
		code = fiber.StatusBadRequest
	default:
		log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// requireUser reads the authenticated user id or fails the request. The
// returned error is handled by the app's ErrorHandler.
func requireUser(c *fiber.Ctx) (uint, error) {
	if id, ok := c.Locals("user_id").(uint); ok && id != 0 {
		return id, nil
	}
	return 0, fiber.ErrUnauthorized
}
