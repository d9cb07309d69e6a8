package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/finance/payments/dto"
	"kursusku_backend/internals/features/finance/payments/model"
	"kursusku_backend/internals/features/finance/payments/repository"
	"kursusku_backend/internals/features/finance/payments/validator"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/metrics"
)

const casAttempts = 3

// SettlementHook dipanggil SEKALI saat payment pertama kali masuk status settled.
type SettlementHook interface {
	OnPaymentSettled(ctx context.Context, p *model.PaymentModel) error
}

// EnrollmentPort: data enrollment yang dibutuhkan untuk membuat tagihan.
type EnrollmentPort interface {
	PaymentContext(ctx context.Context, userID, enrollmentID uuid.UUID) (*dto.PayableEnrollment, error)
	AttachPayment(ctx context.Context, enrollmentID, paymentID uuid.UUID) error
}

type PaymentService struct {
	repo        *repository.PaymentRepository
	gateway     Gateway
	serverKey   string
	enrollments EnrollmentPort
	hooks       []SettlementHook
	now         func() time.Time
}

func NewPaymentService(repo *repository.PaymentRepository, gateway Gateway, serverKey string) *PaymentService {
	return &PaymentService{
		repo:      repo,
		gateway:   gateway,
		serverKey: serverKey,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *PaymentService) SetEnrollmentPort(p EnrollmentPort) { s.enrollments = p }

func (s *PaymentService) AddSettlementHook(h SettlementHook) { s.hooks = append(s.hooks, h) }

/* =========================================================
   Create
========================================================= */

// CreateTransaction: validasi → Snap token → simpan payment pending.
func (s *PaymentService) CreateTransaction(ctx context.Context, req dto.TransactionRequest) (*model.PaymentModel, error) {
	now := s.now()
	if strings.TrimSpace(req.OrderID) == "" {
		req.OrderID = GenerateOrderID("ORD", now)
	}
	if errs := validator.ValidateTransactionRequest(req); len(errs) > 0 {
		return nil, apperror.Validation(errs...)
	}

	snapRes, err := s.gateway.CreateSnap(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("order_id", req.OrderID).Msg("[PAYMENT] create snap gagal")
		return nil, err
	}

	p := &model.PaymentModel{
		PaymentTransactionID: GenerateOrderID("TRX", now),
		PaymentOrderID:       req.OrderID,
		PaymentEnrollmentID:  req.EnrollmentID,
		PaymentUserID:        req.UserID,
		PaymentAmountIDR:     req.GrossAmount(),
		PaymentStatus:        model.PaymentStatusPending,
		PaymentSnapToken:     &snapRes.Token,
		PaymentRedirectURL:   &snapRes.RedirectURL,
	}
	if req.Description != "" {
		p.PaymentDescription = &req.Description
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("order_id sudah dipakai")
		}
		return nil, apperror.Internal("gagal menyimpan payment", err)
	}

	if p.PaymentEnrollmentID != nil && s.enrollments != nil {
		if err := s.enrollments.AttachPayment(ctx, *p.PaymentEnrollmentID, p.PaymentID); err != nil {
			log.Warn().Err(err).Str("payment_id", p.PaymentID.String()).Msg("[PAYMENT] gagal menautkan payment ke enrollment")
		}
	}

	log.Info().
		Str("payment_id", p.PaymentID.String()).
		Str("order_id", p.PaymentOrderID).
		Int64("amount", p.PaymentAmountIDR).
		Msg("💳 Payment dibuat")
	return p, nil
}

// CreateForEnrollment membuat tagihan untuk enrollment milik userID.
// Payment pending yang masih ada dipakai ulang.
func (s *PaymentService) CreateForEnrollment(ctx context.Context, userID, enrollmentID uuid.UUID, phone string) (*model.PaymentModel, error) {
	if s.enrollments == nil {
		return nil, apperror.Internal("enrollment port belum di-set", nil)
	}
	pe, err := s.enrollments.PaymentContext(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if pe.EnrollmentStatus != "pending_payment" {
		return nil, apperror.StateConflict("enrollment tidak sedang menunggu pembayaran (status: " + pe.EnrollmentStatus + ")")
	}

	if open, err := s.repo.FindOpenByEnrollment(ctx, enrollmentID); err == nil && open.PaymentSnapToken != nil {
		return open, nil
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("gagal membaca payment", err)
	}

	if strings.TrimSpace(phone) == "" {
		phone = pe.Phone
	}
	first, last := splitName(pe.FullName)
	req := dto.TransactionRequest{
		UserID:       userID,
		EnrollmentID: &enrollmentID,
		Amount:       pe.AmountIDR,
		Customer: dto.CustomerDetails{
			FirstName: first,
			LastName:  last,
			Email:     pe.Email,
			Phone:     phone,
		},
		Items: []dto.ItemDetail{{
			ID:       pe.CourseID.String(),
			Name:     pe.CourseTitle,
			Price:    pe.AmountIDR,
			Quantity: 1,
		}},
		Description: "Kursus: " + pe.CourseTitle,
	}
	return s.CreateTransaction(ctx, req)
}

/* =========================================================
   Webhook & reconcile
========================================================= */

// ProcessWebhook: verifikasi signature SEBELUM apa pun, lalu lookup + mapping + apply.
func (s *PaymentService) ProcessWebhook(ctx context.Context, n dto.MidtransNotification) (*dto.ApplyResult, error) {
	if !VerifySignature(n, s.serverKey) {
		log.Error().
			Str("event", "security").
			Str("order_id", n.OrderID).
			Str("transaction_id", n.TransactionID).
			Str("gross_amount", n.GrossAmount).
			Msg("🚨 Midtrans notification signature mismatch")
		metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		s.recordEvent(ctx, repository.NewEvent(n, model.GatewayEventStatusRejected, nil, "invalid signature"))
		return nil, apperror.Signature("invalid signature")
	}

	ev := repository.NewEvent(n, model.GatewayEventStatusReceived, nil, "")
	logged := s.recordEvent(ctx, ev)

	p, err := s.repo.FindForNotification(ctx, n.OrderID, n.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.WebhookEvents.WithLabelValues("not_found").Inc()
			s.finishEvent(ctx, logged, ev, model.GatewayEventStatusFailed, "payment not found")
			return nil, apperror.NotFound("payment tidak ditemukan untuk order_id " + n.OrderID)
		}
		s.finishEvent(ctx, logged, ev, model.GatewayEventStatusFailed, err.Error())
		return nil, apperror.Internal("gagal membaca payment", err)
	}
	if logged {
		if err := s.repo.AttachEventPayment(ctx, ev.GatewayEventID, p.PaymentID); err != nil {
			log.Warn().Err(err).Msg("[PAYMENT] gagal menautkan gateway event")
		}
	}

	res, err := s.apply(ctx, p, n.GatewayStatus(), "webhook")
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("error").Inc()
		s.finishEvent(ctx, logged, ev, model.GatewayEventStatusFailed, err.Error())
		return nil, err
	}

	switch {
	case res.Changed:
		metrics.WebhookEvents.WithLabelValues("applied").Inc()
	case res.Ignored:
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
	default:
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
	}
	s.finishEvent(ctx, logged, ev, model.GatewayEventStatusProcessed, "")
	return res, nil
}

// VerifyPayment: tarik status terbaru dari gateway lalu apply (fallback webhook yang hilang).
func (s *PaymentService) VerifyPayment(ctx context.Context, transactionID string) (*dto.ApplyResult, error) {
	p, err := s.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	gs, err := s.gateway.CheckStatus(ctx, p.PaymentOrderID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, p, *gs, "verify")
}

// ReconcileStalePending memverifikasi payment pending yang lebih tua dari olderThan.
func (s *PaymentService) ReconcileStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	list, err := s.repo.ListStalePending(ctx, s.now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range list {
		p := &list[i]
		gs, err := s.gateway.CheckStatus(ctx, p.PaymentOrderID)
		if err != nil {
			log.Warn().Err(err).Str("order_id", p.PaymentOrderID).Msg("[RECONCILE] cek status gagal")
			continue
		}
		res, err := s.apply(ctx, p, *gs, "reconcile")
		if err != nil {
			log.Warn().Err(err).Str("order_id", p.PaymentOrderID).Msg("[RECONCILE] apply gagal")
			continue
		}
		if res.Changed {
			changed++
		}
	}
	return changed, nil
}

// apply menerapkan status gateway ke payment lewat CAS pada status sebelumnya.
func (s *PaymentService) apply(ctx context.Context, p *model.PaymentModel, gs dto.GatewayStatus, source string) (*dto.ApplyResult, error) {
	target := MapGatewayStatus(gs.TransactionStatus, gs.FraudStatus)

	for attempt := 0; attempt < casAttempts; attempt++ {
		prev := p.PaymentStatus
		res := &dto.ApplyResult{Payment: p, PreviousStatus: prev}

		if prev == target {
			return res, nil
		}
		if !model.CanTransition(prev, target) {
			log.Warn().
				Str("payment_id", p.PaymentID.String()).
				Str("from", string(prev)).
				Str("to", string(target)).
				Str("source", source).
				Msg("[PAYMENT] transisi diabaikan")
			res.Ignored = true
			return res, nil
		}

		now := s.now()
		updates := map[string]any{"payment_status": target}
		if gs.TransactionID != "" {
			updates["payment_gateway_transaction_id"] = gs.TransactionID
		}
		if gs.PaymentType != "" {
			updates["payment_method"] = gs.PaymentType
		}
		if gs.FraudStatus != "" {
			updates["payment_fraud_status"] = gs.FraudStatus
		}
		newlySettled := target.IsSettled() && p.PaymentPaidAt == nil
		if newlySettled {
			updates["payment_paid_at"] = now
		}
		switch {
		case target == model.PaymentStatusCancel:
			updates["payment_canceled_at"] = now
			updates["payment_failure_reason"] = "gateway: " + gs.TransactionStatus
		case target.IsFailed():
			updates["payment_failure_reason"] = "gateway: " + gs.TransactionStatus
		case target.IsRefunded():
			updates["payment_refunded_at"] = now
		}

		err := s.repo.CompareAndSetStatus(ctx, p.PaymentID, prev, updates)
		if errors.Is(err, repository.ErrStale) {
			fresh, ferr := s.repo.FindByID(ctx, p.PaymentID)
			if ferr != nil {
				return nil, apperror.Internal("gagal membaca ulang payment", ferr)
			}
			p = fresh
			continue
		}
		if err != nil {
			return nil, apperror.Internal("gagal update status payment", err)
		}

		fresh, err := s.repo.FindByID(ctx, p.PaymentID)
		if err != nil {
			return nil, apperror.Internal("gagal membaca ulang payment", err)
		}
		metrics.PaymentTransitions.WithLabelValues(string(prev), string(target)).Inc()
		log.Info().
			Str("payment_id", fresh.PaymentID.String()).
			Str("from", string(prev)).
			Str("to", string(target)).
			Str("source", source).
			Msg("✅ Status payment diperbarui")

		res.Payment = fresh
		res.Changed = true
		res.NewlySettled = newlySettled
		if newlySettled {
			s.fireSettled(ctx, fresh)
		}
		return res, nil
	}
	return nil, apperror.StateConflict("status payment berubah bersamaan, coba lagi")
}

func (s *PaymentService) fireSettled(ctx context.Context, p *model.PaymentModel) {
	for _, h := range s.hooks {
		if err := h.OnPaymentSettled(ctx, p); err != nil {
			log.Error().Err(err).Str("payment_id", p.PaymentID.String()).Msg("[PAYMENT] settlement hook gagal")
		}
	}
}

/* =========================================================
   Cancel / Refund
========================================================= */

func (s *PaymentService) CancelTransaction(ctx context.Context, transactionID string) (*model.PaymentModel, error) {
	p, err := s.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := p.CanCancel(); err != nil {
		return nil, apperror.StateConflict(err.Error())
	}
	if err := s.gateway.Cancel(ctx, p.PaymentOrderID); err != nil {
		return nil, err
	}
	now := s.now()
	return s.forceTransition(ctx, p, model.PaymentStatusCancel, map[string]any{
		"payment_status":         model.PaymentStatusCancel,
		"payment_canceled_at":    now,
		"payment_failure_reason": "cancelled by user",
	})
}

func (s *PaymentService) RefundTransaction(ctx context.Context, transactionID, reason string) (*model.PaymentModel, error) {
	p, err := s.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := p.CanRefund(); err != nil {
		return nil, apperror.StateConflict(err.Error())
	}
	if err := s.gateway.Refund(ctx, p.PaymentOrderID, p.PaymentAmountIDR, reason); err != nil {
		return nil, err
	}
	now := s.now()
	return s.forceTransition(ctx, p, model.PaymentStatusRefund, map[string]any{
		"payment_status":        model.PaymentStatusRefund,
		"payment_refunded_at":   now,
		"payment_refund_reason": reason,
	})
}

// forceTransition: CAS dari status yang sudah dicek; kalau webhook menyalip ke target yang sama, anggap sukses.
// Dipanggil setelah gateway sudah mengeksekusi cancel/refund.
func (s *PaymentService) forceTransition(ctx context.Context, p *model.PaymentModel, target model.PaymentStatus, updates map[string]any) (*model.PaymentModel, error) {
	prev := p.PaymentStatus
	err := s.repo.CompareAndSetStatus(ctx, p.PaymentID, prev, updates)
	if err != nil && !errors.Is(err, repository.ErrStale) {
		return nil, apperror.Internal("gagal update status payment", err)
	}
	fresh, ferr := s.repo.FindByID(ctx, p.PaymentID)
	if ferr != nil {
		return nil, apperror.Internal("gagal membaca ulang payment", ferr)
	}
	if errors.Is(err, repository.ErrStale) && fresh.PaymentStatus != target {
		log.Error().
			Str("payment_id", p.PaymentID.String()).
			Str("order_id", p.PaymentOrderID).
			Str("gateway_action", string(target)).
			Str("local_status", string(fresh.PaymentStatus)).
			Msg("🚨 [PAYMENT] gateway sudah dieksekusi tapi status lokal berubah duluan, perlu cek manual")
		return nil, apperror.StateConflict("illegal transition " + string(fresh.PaymentStatus) + " -> " + string(target))
	}
	if err == nil {
		metrics.PaymentTransitions.WithLabelValues(string(prev), string(target)).Inc()
	}
	return fresh, nil
}

/* =========================================================
   Queries
========================================================= */

func (s *PaymentService) GetByTransactionID(ctx context.Context, transactionID string) (*model.PaymentModel, error) {
	p, err := s.repo.FindByTransactionID(ctx, transactionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// terima juga order_id
		p, err = s.repo.FindByOrderID(ctx, transactionID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("payment tidak ditemukan")
		}
		return nil, apperror.Internal("gagal membaca payment", err)
	}
	return p, nil
}

func (s *PaymentService) ListMine(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.PaymentModel, int64, error) {
	list, total, err := s.repo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, apperror.Internal("gagal membaca payment", err)
	}
	return list, total, nil
}

func (s *PaymentService) List(ctx context.Context, f dto.ListFilter, offset, limit int) ([]model.PaymentModel, int64, error) {
	if f.Status != "" && !model.PaymentStatus(f.Status).Valid() {
		return nil, 0, apperror.ValidationMsg("status", "status tidak dikenal")
	}
	list, total, err := s.repo.List(ctx, f, offset, limit)
	if err != nil {
		return nil, 0, apperror.Internal("gagal membaca payment", err)
	}
	return list, total, nil
}

// GetPaymentStatistics: agregat seluruh payment; aman untuk data kosong.
func (s *PaymentService) GetPaymentStatistics(ctx context.Context) (*dto.PaymentStatistics, error) {
	rows, err := s.repo.StatusBreakdown(ctx)
	if err != nil {
		return nil, apperror.Internal("gagal menghitung statistik", err)
	}
	st := &dto.PaymentStatistics{}
	for status, agg := range rows {
		st.TotalTransactions += agg.Count
		switch {
		case status.IsSettled():
			st.SuccessfulTransactions += agg.Count
			st.TotalRevenue += agg.Amount
		case status == model.PaymentStatusPending:
			st.PendingTransactions += agg.Count
		case status.IsFailed():
			st.FailedTransactions += agg.Count
		}
	}
	if st.SuccessfulTransactions > 0 {
		st.AverageTransaction = float64(st.TotalRevenue) / float64(st.SuccessfulTransactions)
	}
	if st.TotalTransactions > 0 {
		st.SuccessRate = float64(st.SuccessfulTransactions) / float64(st.TotalTransactions)
	}
	return st, nil
}

/* =========================================================
   Gateway event log (best-effort)
========================================================= */

func (s *PaymentService) recordEvent(ctx context.Context, ev *model.PaymentGatewayEventModel) bool {
	if err := s.repo.CreateEvent(ctx, ev); err != nil {
		log.Warn().Err(err).Str("order_id", deref(ev.GatewayEventOrderID)).Msg("[PAYMENT] gagal simpan gateway event")
		return false
	}
	return true
}

func (s *PaymentService) finishEvent(ctx context.Context, logged bool, ev *model.PaymentGatewayEventModel, status model.GatewayEventStatus, errMsg string) {
	if !logged {
		return
	}
	if err := s.repo.FinishEvent(ctx, ev.GatewayEventID, status, errMsg); err != nil {
		log.Warn().Err(err).Msg("[PAYMENT] gagal update gateway event")
	}
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
