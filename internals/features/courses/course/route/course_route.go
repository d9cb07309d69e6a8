package route

import (
	"github.com/gofiber/fiber/v2"

	"kursusku_backend/internals/constants"
	courseController "kursusku_backend/internals/features/courses/course/controller"
	authMw "kursusku_backend/internals/middlewares/auth"
)

// CoursePublicRoutes → /api/public
func CoursePublicRoutes(r fiber.Router, ctl *courseController.CourseController) {
	r.Get("/courses", ctl.ListPublished)
	r.Get("/courses/:slug", ctl.GetBySlug)
}

// CourseAdminRoutes → /api/a (instructor & admin)
func CourseAdminRoutes(r fiber.Router, ctl *courseController.CourseController) {
	g := r.Group("/courses",
		authMw.OnlyRolesSlice(constants.RoleErrorInstructor("course"), constants.InstructorAndAbove),
	)
	g.Get("/mine", ctl.ListMine)
	g.Post("/", ctl.Create)
	g.Patch("/:id", ctl.Update)
	g.Patch("/:id/publish", ctl.Publish)
	g.Post("/:id/thumbnail", ctl.UploadThumbnail)
}
