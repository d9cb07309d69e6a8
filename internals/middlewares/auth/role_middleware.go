package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"kursusku_backend/internals/helpers/apperror"
)

// OnlyRolesSlice memungkinkan akses jika user memiliki salah satu dari role yang diizinkan.
func OnlyRolesSlice(message string, allowedRoles []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocUserRole).(string)
		if !ok || role == "" {
			return apperror.Unauthorized("Unauthorized: missing role information")
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		log.Debug().Str("role", role).Str("path", c.Path()).Msg("[AUTH] role ditolak")

		if message == "" {
			message = "Forbidden: you are not authorized to access this resource"
		}
		return apperror.Forbidden(message)
	}
}

// Shortcut biar lebih clean pemakaian
func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return OnlyRolesSlice(customMessage, roles)
}
