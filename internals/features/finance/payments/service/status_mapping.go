package service

import (
	"strings"

	"kursusku_backend/internals/features/finance/payments/model"
)

// MapGatewayStatus: status Midtrans (+ fraud_status) → status internal.
// challenge selalu menahan di pending. accept hanya berlaku untuk capture/settlement,
// notifikasi refund kartu juga membawa fraud_status=accept.
func MapGatewayStatus(transactionStatus, fraudStatus string) model.PaymentStatus {
	status := strings.ToLower(strings.TrimSpace(transactionStatus))
	switch strings.ToLower(strings.TrimSpace(fraudStatus)) {
	case "challenge":
		return model.PaymentStatusPending
	case "accept":
		if status == "capture" || status == "settlement" {
			return model.PaymentStatusSettlement
		}
	}

	switch status {
	case "settlement":
		return model.PaymentStatusSettlement
	case "capture":
		return model.PaymentStatusCapture
	case "pending":
		return model.PaymentStatusPending
	case "deny":
		return model.PaymentStatusDeny
	case "cancel":
		return model.PaymentStatusCancel
	case "expire":
		return model.PaymentStatusExpire
	case "refund":
		return model.PaymentStatusRefund
	case "partial_refund":
		return model.PaymentStatusPartialRefund
	}
	return model.PaymentStatusPending
}
