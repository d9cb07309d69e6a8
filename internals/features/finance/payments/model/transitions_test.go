package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentStatusPending, PaymentStatusSettlement, true},
		{PaymentStatusPending, PaymentStatusExpire, true},
		{PaymentStatusCapture, PaymentStatusSettlement, true},
		{PaymentStatusSettlement, PaymentStatusRefund, true},
		{PaymentStatusSettlement, PaymentStatusCancel, true},
		{PaymentStatusSettlement, PaymentStatusPending, false},
		{PaymentStatusSettlement, PaymentStatusExpire, false},
		{PaymentStatusRefund, PaymentStatusSettlement, false},
		{PaymentStatusExpire, PaymentStatusSettlement, false},
		{PaymentStatusDeny, PaymentStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestPaymentModel_CanCancelAndRefund(t *testing.T) {
	p := &PaymentModel{PaymentStatus: PaymentStatusSettlement}
	err := p.CanCancel()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "settlement -> cancel")
	}
	assert.NoError(t, p.CanRefund())

	p.PaymentStatus = PaymentStatusPending
	assert.NoError(t, p.CanCancel())
	err = p.CanRefund()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "pending -> refund")
	}
}

func TestPaymentStatus_Sets(t *testing.T) {
	for _, s := range []PaymentStatus{PaymentStatusSettlement, PaymentStatusCapture, PaymentStatusCompleted} {
		assert.True(t, s.IsSettled(), s)
	}
	for _, s := range []PaymentStatus{PaymentStatusDeny, PaymentStatusCancel, PaymentStatusExpire, PaymentStatusFailed} {
		assert.True(t, s.IsFailed(), s)
		assert.False(t, s.IsSettled(), s)
	}
	assert.False(t, PaymentStatusPending.IsSettled())
	assert.False(t, PaymentStatus("bogus").Valid())
}
