package dto

import (
	"time"

	"github.com/google/uuid"

	"kursusku_backend/internals/features/finance/payments/model"
)

/* =========================
   Transaction request (ke gateway)
========================= */

type CustomerDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type ItemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int32  `json:"quantity"`
}

// TransactionRequest adalah input CreateTransaction.
type TransactionRequest struct {
	OrderID      string          `json:"order_id"`
	UserID       uuid.UUID       `json:"user_id"`
	EnrollmentID *uuid.UUID      `json:"enrollment_id,omitempty"`
	Amount       int64           `json:"amount"`
	Discount     int64           `json:"discount"`
	Customer     CustomerDetails `json:"customer"`
	Items        []ItemDetail    `json:"items"`
	Description  string          `json:"description,omitempty"`
}

// ItemsTotal: sum(price × quantity).
func (r TransactionRequest) ItemsTotal() int64 {
	var total int64
	for _, it := range r.Items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

// GrossAmount: nominal yang ditagih ke gateway (setelah diskon).
func (r TransactionRequest) GrossAmount() int64 {
	return r.Amount - r.Discount
}

// CreatePaymentRequest: body POST /api/u/payments
type CreatePaymentRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required,uuid"`
	Phone        string `json:"phone" validate:"omitempty,max=20"`
}

type RefundRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}

// PayableEnrollment: data enrollment + course + user yang dibutuhkan untuk membuat tagihan.
type PayableEnrollment struct {
	EnrollmentID     uuid.UUID
	EnrollmentStatus string
	CourseID         uuid.UUID
	CourseTitle      string
	AmountIDR        int64
	UserID           uuid.UUID
	FullName         string
	Email            string
	Phone            string
}

/* =========================
   Webhook
========================= */

// MidtransNotification: payload HTTP notification Midtrans.
type MidtransNotification struct {
	TransactionID     string `json:"transaction_id"`
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionTime   string `json:"transaction_time"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	StatusMessage     string `json:"status_message,omitempty"`
}

// GatewayStatus: status transaksi versi gateway (webhook / status check).
type GatewayStatus struct {
	TransactionID     string
	OrderID           string
	TransactionStatus string
	FraudStatus       string
	PaymentType       string
	StatusCode        string
	GrossAmount       string
}

func (n MidtransNotification) GatewayStatus() GatewayStatus {
	return GatewayStatus{
		TransactionID:     n.TransactionID,
		OrderID:           n.OrderID,
		TransactionStatus: n.TransactionStatus,
		FraudStatus:       n.FraudStatus,
		PaymentType:       n.PaymentType,
		StatusCode:        n.StatusCode,
		GrossAmount:       n.GrossAmount,
	}
}

// ApplyResult: hasil penerapan status ke payment.
type ApplyResult struct {
	Payment        *model.PaymentModel `json:"payment"`
	PreviousStatus model.PaymentStatus `json:"previous_status"`
	Changed        bool                `json:"changed"`
	NewlySettled   bool                `json:"newly_settled"`
	Ignored        bool                `json:"ignored"`
}

/* =========================
   Response
========================= */

type PaymentResponse struct {
	PaymentID            uuid.UUID           `json:"payment_id"`
	PaymentTransactionID string              `json:"payment_transaction_id"`
	PaymentOrderID       string              `json:"payment_order_id"`
	PaymentEnrollmentID  *uuid.UUID          `json:"payment_enrollment_id,omitempty"`
	PaymentUserID        uuid.UUID           `json:"payment_user_id"`
	PaymentAmountIDR     int64               `json:"payment_amount_idr"`
	PaymentStatus        model.PaymentStatus `json:"payment_status"`
	PaymentMethod        *string             `json:"payment_method,omitempty"`
	PaymentSnapToken     *string             `json:"payment_snap_token,omitempty"`
	PaymentRedirectURL   *string             `json:"payment_redirect_url,omitempty"`
	PaymentFailureReason *string             `json:"payment_failure_reason,omitempty"`
	PaymentPaidAt        *time.Time          `json:"payment_paid_at,omitempty"`
	PaymentCreatedAt     time.Time           `json:"payment_created_at"`
}

func FromModel(p *model.PaymentModel) PaymentResponse {
	return PaymentResponse{
		PaymentID:            p.PaymentID,
		PaymentTransactionID: p.PaymentTransactionID,
		PaymentOrderID:       p.PaymentOrderID,
		PaymentEnrollmentID:  p.PaymentEnrollmentID,
		PaymentUserID:        p.PaymentUserID,
		PaymentAmountIDR:     p.PaymentAmountIDR,
		PaymentStatus:        p.PaymentStatus,
		PaymentMethod:        p.PaymentMethod,
		PaymentSnapToken:     p.PaymentSnapToken,
		PaymentRedirectURL:   p.PaymentRedirectURL,
		PaymentFailureReason: p.PaymentFailureReason,
		PaymentPaidAt:        p.PaymentPaidAt,
		PaymentCreatedAt:     p.CreatedAt,
	}
}

func FromModels(list []model.PaymentModel) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}

// PaymentStatistics: agregat GET /api/a/payments/statistics
type PaymentStatistics struct {
	TotalTransactions      int64   `json:"total_transactions"`
	SuccessfulTransactions int64   `json:"successful_transactions"`
	PendingTransactions    int64   `json:"pending_transactions"`
	FailedTransactions     int64   `json:"failed_transactions"`
	TotalRevenue           int64   `json:"total_revenue"`
	AverageTransaction     float64 `json:"average_transaction"`
	SuccessRate            float64 `json:"success_rate"`
}

// ListFilter: filter admin list.
type ListFilter struct {
	Status string
	UserID *uuid.UUID
	From   *time.Time
	To     *time.Time
}
