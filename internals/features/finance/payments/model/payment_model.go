package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Model ===================== */

type PaymentModel struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`

	// internal id & id yang dikirim ke gateway (order_id Midtrans)
	PaymentTransactionID string `gorm:"column:payment_transaction_id;size:64;not null;uniqueIndex" json:"payment_transaction_id"`
	PaymentOrderID       string `gorm:"column:payment_order_id;size:64;not null;uniqueIndex" json:"payment_order_id"`
	// transaction_id versi gateway, terisi dari webhook / status check
	PaymentGatewayTransactionID *string `gorm:"column:payment_gateway_transaction_id;size:64;index" json:"payment_gateway_transaction_id,omitempty"`

	PaymentEnrollmentID *uuid.UUID `gorm:"column:payment_enrollment_id;type:uuid;index" json:"payment_enrollment_id,omitempty"`
	PaymentUserID       uuid.UUID  `gorm:"column:payment_user_id;type:uuid;not null;index" json:"payment_user_id"`

	PaymentAmountIDR int64  `gorm:"column:payment_amount_idr;not null;check:payment_amount_idr >= 0" json:"payment_amount_idr"`
	PaymentCurrency  string `gorm:"column:payment_currency;type:varchar(8);not null;default:IDR" json:"payment_currency"`

	PaymentStatus      PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	PaymentMethod      *string       `gorm:"column:payment_method;size:40" json:"payment_method,omitempty"` // payment_type dari gateway
	PaymentFraudStatus *string       `gorm:"column:payment_fraud_status;size:20" json:"payment_fraud_status,omitempty"`

	PaymentSnapToken   *string `gorm:"column:payment_snap_token" json:"payment_snap_token,omitempty"`
	PaymentRedirectURL *string `gorm:"column:payment_redirect_url" json:"payment_redirect_url,omitempty"`

	PaymentFailureReason *string `gorm:"column:payment_failure_reason" json:"payment_failure_reason,omitempty"`
	PaymentRefundReason  *string `gorm:"column:payment_refund_reason" json:"payment_refund_reason,omitempty"`

	PaymentDescription *string        `gorm:"column:payment_description" json:"payment_description,omitempty"`
	PaymentMeta        datatypes.JSON `gorm:"column:payment_meta" json:"payment_meta,omitempty"`

	PaymentPaidAt     *time.Time `gorm:"column:payment_paid_at" json:"payment_paid_at,omitempty"`
	PaymentCanceledAt *time.Time `gorm:"column:payment_canceled_at" json:"payment_canceled_at,omitempty"`
	PaymentRefundedAt *time.Time `gorm:"column:payment_refunded_at" json:"payment_refunded_at,omitempty"`

	CreatedAt time.Time      `gorm:"column:payment_created_at;autoCreateTime;index" json:"payment_created_at"`
	UpdatedAt time.Time      `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:payment_deleted_at;index" json:"payment_deleted_at,omitempty"`
}

func (PaymentModel) TableName() string { return "payments" }

func (p *PaymentModel) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	if p.PaymentCurrency == "" {
		p.PaymentCurrency = "IDR"
	}
	if p.PaymentStatus == "" {
		p.PaymentStatus = PaymentStatusPending
	}
	return nil
}

/* ===================== Invariant checks ===================== */

func (p *PaymentModel) IsSettled() bool { return p.PaymentStatus.IsSettled() }

// CanCancel: cancel hanya dari pending.
func (p *PaymentModel) CanCancel() error {
	if p.PaymentStatus != PaymentStatusPending {
		return fmt.Errorf("cannot cancel transaction: illegal transition %s -> %s", p.PaymentStatus, PaymentStatusCancel)
	}
	return nil
}

// CanRefund: refund hanya dari status settled.
func (p *PaymentModel) CanRefund() error {
	if !p.PaymentStatus.IsSettled() {
		return fmt.Errorf("cannot refund transaction: illegal transition %s -> %s", p.PaymentStatus, PaymentStatusRefund)
	}
	return nil
}
