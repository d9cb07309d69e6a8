package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/finance/payments/dto"
	"kursusku_backend/internals/features/finance/payments/model"
)

// ErrStale: CAS kalah, status di DB sudah berubah sejak dibaca.
var ErrStale = errors.New("payment status changed concurrently")

type PaymentRepository struct {
	DB *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

/* ====================== PAYMENT ====================== */

func (r *PaymentRepository) Create(ctx context.Context, p *model.PaymentModel) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentModel, error) {
	var p model.PaymentModel
	if err := r.DB.WithContext(ctx).First(&p, "payment_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) FindByTransactionID(ctx context.Context, trxID string) (*model.PaymentModel, error) {
	var p model.PaymentModel
	if err := r.DB.WithContext(ctx).
		Where("payment_transaction_id = ?", trxID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*model.PaymentModel, error) {
	var p model.PaymentModel
	if err := r.DB.WithContext(ctx).
		Where("payment_order_id = ?", orderID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindForNotification: order_id dulu, lalu transaction_id gateway / internal.
func (r *PaymentRepository) FindForNotification(ctx context.Context, orderID, trxID string) (*model.PaymentModel, error) {
	if orderID != "" {
		p, err := r.FindByOrderID(ctx, orderID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if trxID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var p model.PaymentModel
	if err := r.DB.WithContext(ctx).
		Where("payment_gateway_transaction_id = ? OR payment_transaction_id = ?", trxID, trxID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindOpenByEnrollment: payment pending terakhir untuk enrollment (dipakai ulang, tidak bikin snap baru).
func (r *PaymentRepository) FindOpenByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*model.PaymentModel, error) {
	var p model.PaymentModel
	if err := r.DB.WithContext(ctx).
		Where("payment_enrollment_id = ? AND payment_status = ?", enrollmentID, model.PaymentStatusPending).
		Order("payment_created_at DESC").
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CompareAndSetStatus menulis kolom `updates` hanya jika status masih `from`.
func (r *PaymentRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from model.PaymentStatus, updates map[string]any) error {
	res := r.DB.WithContext(ctx).
		Model(&model.PaymentModel{}).
		Where("payment_id = ? AND payment_status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.PaymentModel, int64, error) {
	return r.List(ctx, dto.ListFilter{UserID: &userID}, offset, limit)
}

func (r *PaymentRepository) List(ctx context.Context, f dto.ListFilter, offset, limit int) ([]model.PaymentModel, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.PaymentModel{})
	if f.Status != "" {
		q = q.Where("payment_status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("payment_user_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where("payment_created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("payment_created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.PaymentModel
	if err := q.Order("payment_created_at DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListStalePending: payment pending yang lebih tua dari `olderThan` (kandidat reconcile).
func (r *PaymentRepository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]model.PaymentModel, error) {
	var list []model.PaymentModel
	err := r.DB.WithContext(ctx).
		Where("payment_status = ? AND payment_created_at < ?", model.PaymentStatusPending, olderThan).
		Order("payment_created_at ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

type StatusAgg struct {
	Status model.PaymentStatus `gorm:"column:payment_status"`
	Count  int64               `gorm:"column:cnt"`
	Amount int64               `gorm:"column:amount"`
}

// StatusBreakdown: jumlah & total nominal per status.
func (r *PaymentRepository) StatusBreakdown(ctx context.Context) (map[model.PaymentStatus]StatusAgg, error) {
	var rows []StatusAgg
	if err := r.DB.WithContext(ctx).
		Model(&model.PaymentModel{}).
		Select("payment_status, COUNT(*) AS cnt, COALESCE(SUM(payment_amount_idr), 0) AS amount").
		Group("payment_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[model.PaymentStatus]StatusAgg, len(rows))
	for _, row := range rows {
		out[row.Status] = row
	}
	return out, nil
}

/* ====================== GATEWAY EVENTS ====================== */

func (r *PaymentRepository) CreateEvent(ctx context.Context, ev *model.PaymentGatewayEventModel) error {
	return r.DB.WithContext(ctx).Create(ev).Error
}

func (r *PaymentRepository) FinishEvent(ctx context.Context, id uuid.UUID, status model.GatewayEventStatus, errMsg string) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"gateway_event_status":       status,
		"gateway_event_processed_at": now,
	}
	if errMsg != "" {
		updates["gateway_event_error"] = errMsg
	}
	return r.DB.WithContext(ctx).
		Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", id).
		Updates(updates).Error
}

func (r *PaymentRepository) AttachEventPayment(ctx context.Context, eventID, paymentID uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Model(&model.PaymentGatewayEventModel{}).
		Where("gateway_event_id = ?", eventID).
		Update("gateway_event_payment_id", paymentID).Error
}

func (r *PaymentRepository) ListEvents(ctx context.Context, orderID string) ([]model.PaymentGatewayEventModel, error) {
	var list []model.PaymentGatewayEventModel
	err := r.DB.WithContext(ctx).
		Where("gateway_event_order_id = ?", orderID).
		Order("gateway_event_received_at ASC").
		Find(&list).Error
	return list, err
}

// NewEvent menyiapkan row event dari payload webhook.
func NewEvent(n dto.MidtransNotification, status model.GatewayEventStatus, paymentID *uuid.UUID, errMsg string) *model.PaymentGatewayEventModel {
	payload, _ := json.Marshal(n)
	ev := &model.PaymentGatewayEventModel{
		GatewayEventPaymentID:     paymentID,
		GatewayEventProvider:      model.GatewayProviderMidtrans,
		GatewayEventType:          strPtr(n.TransactionStatus),
		GatewayEventOrderID:       strPtr(n.OrderID),
		GatewayEventTransactionID: strPtr(n.TransactionID),
		GatewayEventPayload:       datatypes.JSON(payload),
		GatewayEventSignature:     strPtr(n.SignatureKey),
		GatewayEventStatus:        status,
		GatewayEventError:         strPtr(errMsg),
	}
	return ev
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
