// file: internals/features/finance/payments/controller/payment_controller.go
package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	dto "kursusku_backend/internals/features/finance/payments/dto"
	model "kursusku_backend/internals/features/finance/payments/model"
	svc "kursusku_backend/internals/features/finance/payments/service"
	helper "kursusku_backend/internals/helpers"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/logger"
	authMw "kursusku_backend/internals/middlewares/auth"
)

/* =======================================================================
   Controller
======================================================================= */

type PaymentController struct {
	Service *svc.PaymentService
}

func NewPaymentController(s *svc.PaymentService) *PaymentController {
	return &PaymentController{Service: s}
}

/* =======================================================================
   User handlers
======================================================================= */

// POST /api/u/payments
func (h *PaymentController) CreatePayment(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	var req dto.CreatePaymentRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	enrollmentID, _ := uuid.Parse(req.EnrollmentID)

	p, err := h.Service.CreateForEnrollment(c.UserContext(), userID, enrollmentID, req.Phone)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Payment berhasil dibuat", dto.FromModel(p))
}

// GET /api/u/payments
func (h *PaymentController) ListMyPayments(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	pg := helper.ResolvePaging(c, 20, 100)
	list, total, err := h.Service.ListMine(c.UserContext(), userID, pg.Offset, pg.Limit)
	if err != nil {
		return err
	}
	return helper.JsonList(c, "ok", dto.FromModels(list), helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

// GET /api/u/payments/:transaction_id
func (h *PaymentController) GetMyPayment(c *fiber.Ctx) error {
	p, err := h.ownedPayment(c)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.FromModel(p))
}

// POST /api/u/payments/:transaction_id/verify
func (h *PaymentController) VerifyMyPayment(c *fiber.Ctx) error {
	p, err := h.ownedPayment(c)
	if err != nil {
		return err
	}
	res, err := h.Service.VerifyPayment(c.UserContext(), p.PaymentTransactionID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Status payment diperbarui", dto.FromModel(res.Payment))
}

// POST /api/u/payments/:transaction_id/cancel
func (h *PaymentController) CancelMyPayment(c *fiber.Ctx) error {
	p, err := h.ownedPayment(c)
	if err != nil {
		return err
	}
	out, err := h.Service.CancelTransaction(c.UserContext(), p.PaymentTransactionID)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Payment dibatalkan", dto.FromModel(out))
}

func (h *PaymentController) ownedPayment(c *fiber.Ctx) (*model.PaymentModel, error) {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return nil, err
	}
	p, err := h.Service.GetByTransactionID(c.UserContext(), strings.TrimSpace(c.Params("transaction_id")))
	if err != nil {
		return nil, err
	}
	if p.PaymentUserID != userID && !authMw.IsAdmin(c) {
		// jangan bocorkan keberadaan payment user lain
		return nil, apperror.NotFound("payment tidak ditemukan")
	}
	return p, nil
}

/* =======================================================================
   Admin handlers
======================================================================= */

// GET /api/a/payments?status=&user_id=&from=&to=
func (h *PaymentController) ListPayments(c *fiber.Ctx) error {
	f := dto.ListFilter{Status: strings.TrimSpace(c.Query("status"))}
	if s := strings.TrimSpace(c.Query("user_id")); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return apperror.ValidationMsg("user_id", "user_id tidak valid")
		}
		f.UserID = &id
	}
	for _, q := range []struct {
		key string
		dst **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		if s := strings.TrimSpace(c.Query(q.key)); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				return apperror.ValidationMsg(q.key, "format tanggal harus YYYY-MM-DD")
			}
			*q.dst = &t
		}
	}

	pg := helper.ResolvePaging(c, 20, 200)
	list, total, err := h.Service.List(c.UserContext(), f, pg.Offset, pg.Limit)
	if err != nil {
		return err
	}
	return helper.JsonList(c, "ok", dto.FromModels(list), helper.BuildPaginationFromPage(total, pg.Page, pg.PerPage))
}

// GET /api/a/payments/statistics
func (h *PaymentController) Statistics(c *fiber.Ctx) error {
	st, err := h.Service.GetPaymentStatistics(c.UserContext())
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", st)
}

// GET /api/a/payments/:transaction_id
func (h *PaymentController) GetPayment(c *fiber.Ctx) error {
	p, err := h.Service.GetByTransactionID(c.UserContext(), strings.TrimSpace(c.Params("transaction_id")))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", p)
}

// POST /api/a/payments/:transaction_id/verify
func (h *PaymentController) VerifyPayment(c *fiber.Ctx) error {
	res, err := h.Service.VerifyPayment(c.UserContext(), strings.TrimSpace(c.Params("transaction_id")))
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Status payment diperbarui", res)
}

// POST /api/a/payments/:transaction_id/refund
func (h *PaymentController) RefundPayment(c *fiber.Ctx) error {
	var req dto.RefundRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.Service.RefundTransaction(c.UserContext(), strings.TrimSpace(c.Params("transaction_id")), req.Reason)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Refund diproses", dto.FromModel(p))
}

/* =======================================================================
   Webhook Midtrans
======================================================================= */

// POST /api/payments/notification
func (h *PaymentController) MidtransWebhook(c *fiber.Ctx) error {
	var notif dto.MidtransNotification
	if err := c.BodyParser(&notif); err != nil {
		return apperror.ValidationMsg("body", "invalid payload")
	}

	res, err := h.Service.ProcessWebhook(c.UserContext(), notif)
	if err != nil {
		// order tidak dikenal: balas 200 agar Midtrans tidak retry terus
		if apperror.IsKind(err, apperror.KindNotFound) {
			logger.Warn(c).Str("order_id", notif.OrderID).Msg("[WEBHOOK] payment not found")
			return c.JSON(fiber.Map{"status": "ignored", "reason": "payment not found"})
		}
		return err
	}

	status := "ok"
	if res.Ignored {
		status = "ignored"
	}
	return c.JSON(fiber.Map{
		"status":             status,
		"payment_id":         res.Payment.PaymentID,
		"payment_status":     res.Payment.PaymentStatus,
		"previous_status":    res.PreviousStatus,
		"changed":            res.Changed,
		"transaction_status": notif.TransactionStatus,
		"fraud_status":       notif.FraudStatus,
	})
}
