package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kursusku_backend/internals/features/finance/payments/dto"
	"kursusku_backend/internals/features/finance/payments/model"
	"kursusku_backend/internals/features/finance/payments/repository"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/testdb"
)

/* ===================== fakes ===================== */

type fakeGateway struct {
	mu         sync.Mutex
	snapErr    error
	status     *dto.GatewayStatus
	statusErr  error
	cancelErr  error
	refundErr  error
	snapCalls  int
	cancelled  []string
	refunded   []string
	lastSnapIn dto.TransactionRequest
	onCancel   func(orderID string)
}

func (g *fakeGateway) CreateSnap(_ context.Context, req dto.TransactionRequest) (*SnapResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.snapCalls++
	g.lastSnapIn = req
	if g.snapErr != nil {
		return nil, g.snapErr
	}
	return &SnapResult{Token: "snap-" + req.OrderID, RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/" + req.OrderID}, nil
}

func (g *fakeGateway) CheckStatus(_ context.Context, orderID string) (*dto.GatewayStatus, error) {
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	st := *g.status
	st.OrderID = orderID
	return &st, nil
}

func (g *fakeGateway) Cancel(_ context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, orderID)
	if g.onCancel != nil {
		g.onCancel(orderID)
	}
	return g.cancelErr
}

func (g *fakeGateway) Refund(_ context.Context, orderID string, _ int64, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunded = append(g.refunded, orderID)
	return g.refundErr
}

type countingHook struct{ n atomic.Int32 }

func (h *countingHook) OnPaymentSettled(context.Context, *model.PaymentModel) error {
	h.n.Add(1)
	return nil
}

/* ===================== setup ===================== */

func newTestService(t *testing.T) (*PaymentService, *repository.PaymentRepository, *fakeGateway, *countingHook) {
	t.Helper()
	db := testdb.New(t, &model.PaymentModel{}, &model.PaymentGatewayEventModel{})
	repo := repository.NewPaymentRepository(db)
	gw := &fakeGateway{}
	svc := NewPaymentService(repo, gw, testServerKey)
	hook := &countingHook{}
	svc.AddSettlementHook(hook)
	return svc, repo, gw, hook
}

func seedPayment(t *testing.T, repo *repository.PaymentRepository, status model.PaymentStatus) *model.PaymentModel {
	t.Helper()
	p := &model.PaymentModel{
		PaymentTransactionID: "TRX-" + uuid.NewString()[:8],
		PaymentOrderID:       "ORD-" + uuid.NewString()[:8],
		PaymentUserID:        uuid.New(),
		PaymentAmountIDR:     150000,
		PaymentStatus:        status,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func notificationFor(p *model.PaymentModel, status, fraud string) dto.MidtransNotification {
	n := dto.MidtransNotification{
		TransactionID:     "gw-" + p.PaymentOrderID,
		OrderID:           p.PaymentOrderID,
		TransactionStatus: status,
		FraudStatus:       fraud,
		StatusCode:        "200",
		GrossAmount:       "150000.00",
		PaymentType:       "bank_transfer",
	}
	n.SignatureKey = ComputeSignature(n.TransactionID, n.StatusCode, n.GrossAmount, testServerKey)
	return n
}

func validTransaction() dto.TransactionRequest {
	return dto.TransactionRequest{
		UserID: uuid.New(),
		Amount: 150000,
		Customer: dto.CustomerDetails{
			FirstName: "Budi",
			LastName:  "Santoso",
			Email:     "budi@example.com",
			Phone:     "081234567890",
		},
		Items: []dto.ItemDetail{{ID: "c1", Name: "Golang Dasar", Price: 150000, Quantity: 1}},
	}
}

/* ===================== create ===================== */

func TestCreateTransaction_PersistsPendingWithToken(t *testing.T) {
	svc, repo, gw, _ := newTestService(t)

	p, err := svc.CreateTransaction(context.Background(), validTransaction())
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPending, p.PaymentStatus)
	assert.NotEmpty(t, p.PaymentOrderID)
	assert.NotEqual(t, p.PaymentOrderID, p.PaymentTransactionID)
	require.NotNil(t, p.PaymentSnapToken)
	assert.Equal(t, "snap-"+p.PaymentOrderID, *p.PaymentSnapToken)
	assert.Nil(t, p.PaymentPaidAt)
	assert.Equal(t, 1, gw.snapCalls)

	stored, err := repo.FindByOrderID(context.Background(), p.PaymentOrderID)
	require.NoError(t, err)
	assert.Equal(t, p.PaymentID, stored.PaymentID)
}

func TestCreateTransaction_DiscountStoresNetAmount(t *testing.T) {
	svc, repo, gw, _ := newTestService(t)

	req := validTransaction()
	req.Discount = 10000
	p, err := svc.CreateTransaction(context.Background(), req)
	require.NoError(t, err)

	assert.EqualValues(t, 140000, p.PaymentAmountIDR)
	assert.EqualValues(t, 140000, gw.lastSnapIn.GrossAmount())
	stored, err := repo.FindByID(context.Background(), p.PaymentID)
	require.NoError(t, err)
	assert.EqualValues(t, 140000, stored.PaymentAmountIDR)
}

func TestCreateTransaction_ItemsNotMatchingAmount(t *testing.T) {
	svc, _, gw, _ := newTestService(t)

	req := validTransaction()
	req.Items[0].Price = 90000
	_, err := svc.CreateTransaction(context.Background(), req)
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, ae.Kind)
	assert.Equal(t, 0, gw.snapCalls)
}

func TestCreateTransaction_ValidationIsAggregatedAndSkipsGateway(t *testing.T) {
	svc, _, gw, _ := newTestService(t)

	req := validTransaction()
	req.Amount = 999
	req.Customer.Email = "bad"
	req.Items = nil

	_, err := svc.CreateTransaction(context.Background(), req)
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, ae.Kind)
	assert.GreaterOrEqual(t, len(ae.Details), 3)
	assert.Equal(t, 0, gw.snapCalls)
}

func TestCreateTransaction_GatewayFailurePropagates(t *testing.T) {
	svc, repo, gw, _ := newTestService(t)
	gw.snapErr = apperror.Upstream("payment gateway timeout", true, context.DeadlineExceeded)

	_, err := svc.CreateTransaction(context.Background(), validTransaction())
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindUpstream, ae.Kind)
	assert.True(t, ae.Retryable)

	list, total, err := repo.List(context.Background(), dto.ListFilter{}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

/* ===================== webhook ===================== */

func TestProcessWebhook_TamperedAmountRejectedBeforeLookup(t *testing.T) {
	svc, repo, _, hook := newTestService(t)
	p := seedPayment(t, repo, model.PaymentStatusPending)

	n := notificationFor(p, "settlement", "")
	n.GrossAmount = "1.00"

	_, err := svc.ProcessWebhook(context.Background(), n)
	assert.True(t, apperror.IsKind(err, apperror.KindSignature))

	// order yang tidak ada pun tetap signature error, bukan not found
	n.OrderID = "ORD-DOES-NOT-EXIST"
	_, err = svc.ProcessWebhook(context.Background(), n)
	assert.True(t, apperror.IsKind(err, apperror.KindSignature))

	fresh, err := repo.FindByID(context.Background(), p.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, fresh.PaymentStatus)
	assert.Nil(t, fresh.PaymentPaidAt)
	assert.Zero(t, hook.n.Load())

	events, err := repo.ListEvents(context.Background(), p.PaymentOrderID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.GatewayEventStatusRejected, events[0].GatewayEventStatus)
}

func TestProcessWebhook_SettlementIsIdempotent(t *testing.T) {
	svc, repo, _, hook := newTestService(t)
	p := seedPayment(t, repo, model.PaymentStatusPending)
	n := notificationFor(p, "settlement", "")

	first, err := svc.ProcessWebhook(context.Background(), n)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.True(t, first.NewlySettled)
	assert.Equal(t, model.PaymentStatusSettlement, first.Payment.PaymentStatus)
	require.NotNil(t, first.Payment.PaymentPaidAt)
	paidAt := *first.Payment.PaymentPaidAt

	second, err := svc.ProcessWebhook(context.Background(), n)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.False(t, second.NewlySettled)
	assert.Equal(t, model.PaymentStatusSettlement, second.Payment.PaymentStatus)
	require.NotNil(t, second.Payment.PaymentPaidAt)
	assert.True(t, paidAt.Equal(*second.Payment.PaymentPaidAt))

	assert.EqualValues(t, 1, hook.n.Load())

	events, err := repo.ListEvents(context.Background(), p.PaymentOrderID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, model.GatewayEventStatusProcessed, ev.GatewayEventStatus)
		require.NotNil(t, ev.GatewayEventPaymentID)
		assert.Equal(t, p.PaymentID, *ev.GatewayEventPaymentID)
	}
}

func TestProcessWebhook_ConcurrentDeliveriesFireHookOnce(t *testing.T) {
	svc, repo, _, hook := newTestService(t)
	p := seedPayment(t, repo, model.PaymentStatusPending)
	n := notificationFor(p, "capture", "accept")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ProcessWebhook(context.Background(), n); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}

	assert.EqualValues(t, 1, hook.n.Load())
	fresh, err := repo.FindByID(context.Background(), p.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSettlement, fresh.PaymentStatus)
}

func TestProcessWebhook_UnknownOrderIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	n := notificationFor(&model.PaymentModel{PaymentOrderID: "ORD-MISSING"}, "settlement", "")

	_, err := svc.ProcessWebhook(context.Background(), n)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestProcessWebhook_LatePendingDoesNotRegressSettled(t *testing.T) {
	svc, repo, _, hook := newTestService(t)
	p := seedPayment(t, repo, model.PaymentStatusPending)

	_, err := svc.ProcessWebhook(context.Background(), notificationFor(p, "settlement", ""))
	require.NoError(t, err)

	res, err := svc.ProcessWebhook(context.Background(), notificationFor(p, "pending", ""))
	require.NoError(t, err)
	assert.True(t, res.Ignored)
	assert.Equal(t, model.PaymentStatusSettlement, res.Payment.PaymentStatus)
	assert.NotNil(t, res.Payment.PaymentPaidAt)
	assert.EqualValues(t, 1, hook.n.Load())
}

func TestProcessWebhook_ChallengeKeepsPending(t *testing.T) {
	svc, repo, _, hook := newTestService(t)
	p := seedPayment(t, repo, model.PaymentStatusPending)

	res, err := svc.ProcessWebhook(context.Background(), notificationFor(p, "capture", "challenge"))
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, model.PaymentStatusPending, res.Payment.PaymentStatus)
	assert.Zero(t, hook.n.Load())
}

func TestProcessWebhook_RefundAfterSettlementKeepsPaidAt(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	p := seedPayment(t, repo, model.PaymentStatusPending)

	_, err := svc.ProcessWebhook(context.Background(), notificationFor(p, "settlement", ""))
	require.NoError(t, err)
	res, err := svc.ProcessWebhook(context.Background(), notificationFor(p, "refund", ""))
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, model.PaymentStatusRefund, res.Payment.PaymentStatus)
	assert.NotNil(t, res.Payment.PaymentPaidAt)
	assert.NotNil(t, res.Payment.PaymentRefundedAt)
}

func TestProcessWebhook_CardRefundWithAcceptIsApplied(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	p := seedPayment(t, repo, model.PaymentStatusSettlement)

	res, err := svc.ProcessWebhook(context.Background(), notificationFor(p, "refund", "accept"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, model.PaymentStatusRefund, res.Payment.PaymentStatus)
}

/* ===================== verify ===================== */

func TestVerifyPayment_AppliesGatewayStatus(t *testing.T) {
	svc, repo, gw, hook := newTestService(t)
	p := seedPayment(t, repo, model.PaymentStatusPending)
	gw.status = &dto.GatewayStatus{TransactionID: "gw-1", TransactionStatus: "settlement", PaymentType: "qris", StatusCode: "200"}

	res, err := svc.VerifyPayment(context.Background(), p.PaymentTransactionID)
	require.NoError(t, err)
	assert.True(t, res.NewlySettled)
	assert.Equal(t, model.PaymentStatusSettlement, res.Payment.PaymentStatus)
	require.NotNil(t, res.Payment.PaymentMethod)
	assert.Equal(t, "qris", *res.Payment.PaymentMethod)
	assert.EqualValues(t, 1, hook.n.Load())
}

func TestVerifyPayment_GatewayErrorPropagates(t *testing.T) {
	svc, repo, gw, _ := newTestService(t)
	p := seedPayment(t, repo, model.PaymentStatusPending)
	gw.statusErr = apperror.Upstream("payment gateway timeout", true, context.DeadlineExceeded)

	_, err := svc.VerifyPayment(context.Background(), p.PaymentTransactionID)
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.True(t, ae.Retryable)
}

func TestReconcileStalePending(t *testing.T) {
	svc, repo, gw, _ := newTestService(t)
	seedPayment(t, repo, model.PaymentStatusPending)
	seedPayment(t, repo, model.PaymentStatusPending)
	seedPayment(t, repo, model.PaymentStatusSettlement)
	gw.status = &dto.GatewayStatus{TransactionStatus: "expire", StatusCode: "407"}

	changed, err := svc.ReconcileStalePending(context.Background(), -time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	_, total, err := repo.List(context.Background(), dto.ListFilter{Status: "expire"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

/* ===================== cancel / refund ===================== */

func TestCancelTransaction(t *testing.T) {
	svc, repo, gw, _ := newTestService(t)

	settled := seedPayment(t, repo, model.PaymentStatusSettlement)
	_, err := svc.CancelTransaction(context.Background(), settled.PaymentTransactionID)
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeStateConflict, ae.Code)
	assert.Contains(t, ae.Message, "settlement -> cancel")
	assert.Empty(t, gw.cancelled)

	pending := seedPayment(t, repo, model.PaymentStatusPending)
	p, err := svc.CancelTransaction(context.Background(), pending.PaymentTransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCancel, p.PaymentStatus)
	assert.NotNil(t, p.PaymentCanceledAt)
	assert.Equal(t, []string{pending.PaymentOrderID}, gw.cancelled)
}

func TestCancelTransaction_LosesRaceToWebhookIsLogged(t *testing.T) {
	svc, repo, gw, _ := newTestService(t)
	pending := seedPayment(t, repo, model.PaymentStatusPending)

	// webhook settlement masuk saat cancel ke gateway sedang jalan
	gw.onCancel = func(string) {
		require.NoError(t, repo.CompareAndSetStatus(context.Background(), pending.PaymentID, model.PaymentStatusPending, map[string]any{
			"payment_status": model.PaymentStatusSettlement,
		}))
	}

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	_, err := svc.CancelTransaction(context.Background(), pending.PaymentTransactionID)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	assert.Equal(t, []string{pending.PaymentOrderID}, gw.cancelled)

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, pending.PaymentOrderID)
	assert.Contains(t, out, `"local_status":"settlement"`)
}

func TestRefundTransaction(t *testing.T) {
	svc, repo, gw, _ := newTestService(t)

	pending := seedPayment(t, repo, model.PaymentStatusPending)
	_, err := svc.RefundTransaction(context.Background(), pending.PaymentTransactionID, "salah beli")
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, ae.Kind)
	assert.Contains(t, ae.Message, "pending -> refund")

	settled := seedPayment(t, repo, model.PaymentStatusSettlement)
	p, err := svc.RefundTransaction(context.Background(), settled.PaymentTransactionID, "salah beli")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefund, p.PaymentStatus)
	require.NotNil(t, p.PaymentRefundReason)
	assert.Equal(t, "salah beli", *p.PaymentRefundReason)
	assert.Equal(t, []string{settled.PaymentOrderID}, gw.refunded)
}

func TestRefundTransaction_GatewayDeclineLeavesStatus(t *testing.T) {
	svc, repo, gw, _ := newTestService(t)
	gw.refundErr = apperror.Upstream("Transaction cannot be refunded", false, errors.New("midtrans status 412"))

	settled := seedPayment(t, repo, model.PaymentStatusSettlement)
	_, err := svc.RefundTransaction(context.Background(), settled.PaymentTransactionID, "salah beli")
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.False(t, ae.Retryable)

	fresh, err := repo.FindByID(context.Background(), settled.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSettlement, fresh.PaymentStatus)
}

/* ===================== statistics ===================== */

func TestGetPaymentStatistics_Empty(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	st, err := svc.GetPaymentStatistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalTransactions)
	assert.Zero(t, st.SuccessRate)
	assert.Zero(t, st.AverageTransaction)
}

func TestGetPaymentStatistics(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	seedPayment(t, repo, model.PaymentStatusSettlement)
	seedPayment(t, repo, model.PaymentStatusCapture)
	seedPayment(t, repo, model.PaymentStatusPending)
	seedPayment(t, repo, model.PaymentStatusExpire)

	st, err := svc.GetPaymentStatistics(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, st.TotalTransactions)
	assert.EqualValues(t, 2, st.SuccessfulTransactions)
	assert.EqualValues(t, 1, st.PendingTransactions)
	assert.EqualValues(t, 1, st.FailedTransactions)
	assert.EqualValues(t, 300000, st.TotalRevenue)
	assert.InDelta(t, 150000, st.AverageTransaction, 0.001)
	assert.InDelta(t, 0.5, st.SuccessRate, 0.0001)
}

/* ===================== enrollment ===================== */

type fakeEnrollments struct {
	pe       dto.PayableEnrollment
	attached []uuid.UUID
}

func (f *fakeEnrollments) PaymentContext(_ context.Context, userID, enrollmentID uuid.UUID) (*dto.PayableEnrollment, error) {
	if userID != f.pe.UserID || enrollmentID != f.pe.EnrollmentID {
		return nil, apperror.NotFound("enrollment tidak ditemukan")
	}
	pe := f.pe
	return &pe, nil
}

func (f *fakeEnrollments) AttachPayment(_ context.Context, _ uuid.UUID, paymentID uuid.UUID) error {
	f.attached = append(f.attached, paymentID)
	return nil
}

func TestCreateForEnrollment_ReusesOpenPayment(t *testing.T) {
	svc, _, gw, _ := newTestService(t)
	fe := &fakeEnrollments{pe: dto.PayableEnrollment{
		EnrollmentID:     uuid.New(),
		EnrollmentStatus: "pending_payment",
		CourseID:         uuid.New(),
		CourseTitle:      "Golang Dasar",
		AmountIDR:        250000,
		UserID:           uuid.New(),
		FullName:         "Siti Nur Aminah",
		Email:            "siti@example.com",
		Phone:            "+62 812 3456 7890",
	}}
	svc.SetEnrollmentPort(fe)

	p1, err := svc.CreateForEnrollment(context.Background(), fe.pe.UserID, fe.pe.EnrollmentID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 250000, p1.PaymentAmountIDR)
	assert.Equal(t, "Siti", gw.lastSnapIn.Customer.FirstName)
	assert.Equal(t, "Nur Aminah", gw.lastSnapIn.Customer.LastName)
	assert.Equal(t, []uuid.UUID{p1.PaymentID}, fe.attached)

	p2, err := svc.CreateForEnrollment(context.Background(), fe.pe.UserID, fe.pe.EnrollmentID, "")
	require.NoError(t, err)
	assert.Equal(t, p1.PaymentID, p2.PaymentID)
	assert.Equal(t, 1, gw.snapCalls)

	_, err = svc.CreateForEnrollment(context.Background(), uuid.New(), fe.pe.EnrollmentID, "")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestCreateForEnrollment_ActiveEnrollmentConflicts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	fe := &fakeEnrollments{pe: dto.PayableEnrollment{
		EnrollmentID:     uuid.New(),
		EnrollmentStatus: "active",
		UserID:           uuid.New(),
	}}
	svc.SetEnrollmentPort(fe)

	_, err := svc.CreateForEnrollment(context.Background(), fe.pe.UserID, fe.pe.EnrollmentID, "")
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}
