package model

type PaymentStatus string
type GatewayEventStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusSettlement    PaymentStatus = "settlement"
	PaymentStatusCapture       PaymentStatus = "capture"
	PaymentStatusDeny          PaymentStatus = "deny"
	PaymentStatusCancel        PaymentStatus = "cancel"
	PaymentStatusExpire        PaymentStatus = "expire"
	PaymentStatusRefund        PaymentStatus = "refund"
	PaymentStatusPartialRefund PaymentStatus = "partial_refund"
	PaymentStatusCompleted     PaymentStatus = "completed"
	PaymentStatusFailed        PaymentStatus = "failed"
)

const GatewayProviderMidtrans = "midtrans"

const (
	GatewayEventStatusReceived  GatewayEventStatus = "received"
	GatewayEventStatusProcessed GatewayEventStatus = "processed"
	GatewayEventStatusRejected  GatewayEventStatus = "rejected"
	GatewayEventStatusFailed    GatewayEventStatus = "failed"
)

// SettledStatuses: dana sudah diterima.
var SettledStatuses = []PaymentStatus{
	PaymentStatusSettlement,
	PaymentStatusCapture,
	PaymentStatusCompleted,
}

// FailedStatuses dihitung sebagai gagal di statistik.
var FailedStatuses = []PaymentStatus{
	PaymentStatusDeny,
	PaymentStatusCancel,
	PaymentStatusExpire,
	PaymentStatusFailed,
}

func (s PaymentStatus) IsSettled() bool {
	for _, v := range SettledStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s PaymentStatus) IsFailed() bool {
	for _, v := range FailedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s PaymentStatus) IsRefunded() bool {
	return s == PaymentStatusRefund || s == PaymentStatusPartialRefund
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSettlement, PaymentStatusCapture, PaymentStatusDeny,
		PaymentStatusCancel, PaymentStatusExpire, PaymentStatusRefund, PaymentStatusPartialRefund,
		PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}
