package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
  payment_gateway_events = LOG WEBHOOK / CALLBACK PAYMENT GATEWAY
  - Bisa banyak row per 1 payment (tiap callback / notif)
  - Nyimpen raw payload, signature, status processing.
*/

type PaymentGatewayEventModel struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;primaryKey" json:"gateway_event_id"`

	GatewayEventPaymentID *uuid.UUID `gorm:"column:gateway_event_payment_id;type:uuid;index" json:"gateway_event_payment_id,omitempty"`

	GatewayEventProvider      string  `gorm:"column:gateway_event_provider;size:30;not null" json:"gateway_event_provider"`
	GatewayEventType          *string `gorm:"column:gateway_event_type" json:"gateway_event_type,omitempty"` // transaction_status
	GatewayEventOrderID       *string `gorm:"column:gateway_event_order_id;index" json:"gateway_event_order_id,omitempty"`
	GatewayEventTransactionID *string `gorm:"column:gateway_event_transaction_id" json:"gateway_event_transaction_id,omitempty"`

	GatewayEventPayload   datatypes.JSON `gorm:"column:gateway_event_payload" json:"gateway_event_payload"`
	GatewayEventSignature *string        `gorm:"column:gateway_event_signature" json:"gateway_event_signature,omitempty"`

	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;size:20;not null;default:'received'" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error" json:"gateway_event_error,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`
}

func (PaymentGatewayEventModel) TableName() string {
	return "payment_gateway_events"
}

func (e *PaymentGatewayEventModel) BeforeCreate(tx *gorm.DB) error {
	if e.GatewayEventID == uuid.Nil {
		e.GatewayEventID = uuid.New()
	}
	if e.GatewayEventReceivedAt.IsZero() {
		e.GatewayEventReceivedAt = time.Now().UTC()
	}
	if e.GatewayEventStatus == "" {
		e.GatewayEventStatus = GatewayEventStatusReceived
	}
	return nil
}
