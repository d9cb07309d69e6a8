package route

import (
	"github.com/gofiber/fiber/v2"

	oauthController "kursusku_backend/internals/features/users/oauth/controller"
	"kursusku_backend/internals/middlewares"
)

// OAuthRoutes → /api/auth/oauth/* dan /api/auth/login-google.
// optionalAuth di callback: mode linking butuh sesi user yang memulai.
func OAuthRoutes(r fiber.Router, ctl *oauthController.OAuthController, requireAuth, optionalAuth fiber.Handler) {
	g := r.Group("/auth")
	g.Post("/login-google", middlewares.LoginRateLimiter(), ctl.LoginGoogle)

	o := g.Group("/oauth")
	o.Get("/accounts", requireAuth, ctl.Accounts)
	o.Get("/:provider", ctl.Redirect)
	o.Get("/:provider/callback", optionalAuth, ctl.Callback)
	o.Get("/:provider/link", requireAuth, ctl.Link)
	o.Delete("/:provider", requireAuth, ctl.Unlink)
}
