package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kursusku_backend/internals/helpers/logger"
)

// RequestID memakai X-Request-ID dari client bila ada, kalau tidak generate baru.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Locals(logger.LocRequestID, id)
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}
