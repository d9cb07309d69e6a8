package route

import (
	"github.com/gofiber/fiber/v2"

	enrollmentController "kursusku_backend/internals/features/courses/enrollment/controller"
)

// EnrollmentUserRoutes → /api/u
func EnrollmentUserRoutes(r fiber.Router, ctl *enrollmentController.EnrollmentController) {
	g := r.Group("/enrollments")
	g.Post("/", ctl.Enroll)
	g.Get("/", ctl.ListMine)
	g.Get("/:id", ctl.Get)
	g.Patch("/:id/progress", ctl.UpdateProgress)
	g.Post("/:id/complete", ctl.Complete)
}
