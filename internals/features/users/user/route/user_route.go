package route

import (
	"github.com/gofiber/fiber/v2"

	"kursusku_backend/internals/constants"
	userController "kursusku_backend/internals/features/users/user/controller"
	authMw "kursusku_backend/internals/middlewares/auth"
)

// UserSelfRoutes → /api/u
func UserSelfRoutes(r fiber.Router, ctl *userController.UserController) {
	r.Patch("/users/me", ctl.UpdateMe)
}

// UserAdminRoutes → /api/a (admin saja)
func UserAdminRoutes(r fiber.Router, ctl *userController.UserController) {
	g := r.Group("/users", authMw.OnlyRolesSlice(constants.RoleErrorAdmin("user"), constants.AdminOnly))
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Get)
	g.Patch("/:id/role", ctl.UpdateRole)
	g.Patch("/:id/active", ctl.UpdateActive)
}
