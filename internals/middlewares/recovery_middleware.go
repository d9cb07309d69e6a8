package middlewares

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

// RecoveryMiddleware menangkap panic dan mengembalikan error 500
func RecoveryMiddleware(stackTrace bool) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: stackTrace,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error().
				Str("path", c.Path()).
				Str("panic", fmt.Sprint(e)).
				Msg("💥 panic recovered")
		},
	})
}
