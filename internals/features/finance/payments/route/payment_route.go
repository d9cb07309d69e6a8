package route

import (
	"github.com/gofiber/fiber/v2"

	"kursusku_backend/internals/constants"
	paymentController "kursusku_backend/internals/features/finance/payments/controller"
	authMw "kursusku_backend/internals/middlewares/auth"
)

// PaymentUserRoutes → mount di group /api/u (sudah lewat AuthMiddleware)
func PaymentUserRoutes(r fiber.Router, ctl *paymentController.PaymentController) {
	payments := r.Group("/payments")
	payments.Post("/", ctl.CreatePayment)
	payments.Get("/", ctl.ListMyPayments)
	payments.Get("/:transaction_id", ctl.GetMyPayment)
	payments.Post("/:transaction_id/verify", ctl.VerifyMyPayment)
	payments.Post("/:transaction_id/cancel", ctl.CancelMyPayment)
}

// PaymentAdminRoutes → mount di group /api/a
func PaymentAdminRoutes(r fiber.Router, ctl *paymentController.PaymentController) {
	payments := r.Group("/payments",
		authMw.OnlyRolesSlice(constants.RoleErrorAdmin("payments"), constants.AdminOnly),
	)
	payments.Get("/", ctl.ListPayments)
	payments.Get("/statistics", ctl.Statistics)
	payments.Get("/:transaction_id", ctl.GetPayment)
	payments.Post("/:transaction_id/verify", ctl.VerifyPayment)
	payments.Post("/:transaction_id/refund", ctl.RefundPayment)
}

// PaymentWebhookRoutes: tanpa auth, kepercayaan dari signature_key.
func PaymentWebhookRoutes(r fiber.Router, ctl *paymentController.PaymentController, guards ...fiber.Handler) {
	handlers := append(guards, ctl.MidtransWebhook)
	r.Post("/payments/notification", handlers...)
}
