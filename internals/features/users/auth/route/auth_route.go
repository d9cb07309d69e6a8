package route

import (
	"github.com/gofiber/fiber/v2"

	authController "kursusku_backend/internals/features/users/auth/controller"
	"kursusku_backend/internals/middlewares"
)

// AuthRoutes → /api/auth. requireAuth dipasang hanya di endpoint yang butuh user login.
func AuthRoutes(r fiber.Router, ctl *authController.AuthController, requireAuth fiber.Handler) {
	g := r.Group("/auth")
	g.Post("/register", middlewares.RegisterRateLimiter(), ctl.Register)
	g.Post("/login", middlewares.LoginRateLimiter(), ctl.Login)
	g.Post("/refresh-token", ctl.RefreshToken)
	g.Post("/logout", ctl.Logout)
	g.Get("/me", requireAuth, ctl.Me)
	g.Post("/change-password", requireAuth, ctl.ChangePassword)
}
