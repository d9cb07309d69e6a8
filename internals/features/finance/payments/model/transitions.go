package model

// AllowedTransitions: status asal -> status tujuan yang sah.
// Status yang tidak punya entry (deny, cancel, expire, failed, refund) adalah terminal.
var AllowedTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {
		PaymentStatusSettlement,
		PaymentStatusCapture,
		PaymentStatusCompleted,
		PaymentStatusDeny,
		PaymentStatusCancel,
		PaymentStatusExpire,
		PaymentStatusFailed,
	},
	PaymentStatusCapture: {
		PaymentStatusSettlement,
		PaymentStatusCompleted,
		PaymentStatusCancel,
		PaymentStatusRefund,
		PaymentStatusPartialRefund,
	},
	PaymentStatusSettlement: {
		PaymentStatusCompleted,
		PaymentStatusCancel,
		PaymentStatusRefund,
		PaymentStatusPartialRefund,
	},
	PaymentStatusCompleted: {
		PaymentStatusRefund,
		PaymentStatusPartialRefund,
	},
	PaymentStatusPartialRefund: {
		PaymentStatusRefund,
	},
}

func CanTransition(from, to PaymentStatus) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
