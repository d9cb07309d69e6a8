package route

import (
	"github.com/gofiber/fiber/v2"

	"kursusku_backend/internals/constants"
	certController "kursusku_backend/internals/features/certificates/controller"
	authMw "kursusku_backend/internals/middlewares/auth"
)

// CertificatePublicRoutes → /api/public
func CertificatePublicRoutes(r fiber.Router, ctl *certController.CertificateController, guards ...fiber.Handler) {
	handlers := append(guards, ctl.Verify)
	r.Get("/certificates/verify/:serial", handlers...)
}

// CertificateUserRoutes → /api/u
func CertificateUserRoutes(r fiber.Router, ctl *certController.CertificateController) {
	g := r.Group("/certificates")
	g.Get("/", ctl.Mine)
	g.Get("/:id/download", ctl.Download)
}

// CertificateAdminRoutes → /api/a
func CertificateAdminRoutes(r fiber.Router, ctl *certController.CertificateController) {
	g := r.Group("/certificates",
		authMw.OnlyRolesSlice(constants.RoleErrorAdmin("sertifikat"), constants.AdminOnly),
	)
	g.Post("/batches", ctl.CreateBatch)
	g.Get("/batches", ctl.ListBatches)
	g.Get("/batches/:id", ctl.BatchCertificates)
	g.Get("/stats/:course_id", ctl.Stats)
	g.Post("/:id/assign", ctl.Assign)
	g.Patch("/:id/link", ctl.UpdateLink)
}
