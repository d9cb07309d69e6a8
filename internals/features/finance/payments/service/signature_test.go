package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"kursusku_backend/internals/features/finance/payments/dto"
)

const testServerKey = "SB-Mid-server-test"

func signedNotification(status string) dto.MidtransNotification {
	n := dto.MidtransNotification{
		TransactionID:     "9aed5972-5b6a-401e-894b-a32c91ed1a3a",
		OrderID:           "ORD-20240101-000000-ABCDEF12",
		TransactionStatus: status,
		StatusCode:        "200",
		GrossAmount:       "150000.00",
		PaymentType:       "bank_transfer",
	}
	n.SignatureKey = ComputeSignature(n.TransactionID, n.StatusCode, n.GrossAmount, testServerKey)
	return n
}

func TestComputeSignature_IsSHA512Hex(t *testing.T) {
	sig := ComputeSignature("a", "200", "1000.00", "key")
	assert.Len(t, sig, 128)
	assert.Equal(t, sig, ComputeSignature("a", "200", "1000.00", "key"))
	assert.NotEqual(t, sig, ComputeSignature("a", "201", "1000.00", "key"))
}

func TestVerifySignature(t *testing.T) {
	n := signedNotification("settlement")
	assert.True(t, VerifySignature(n, testServerKey))

	upper := n
	upper.SignatureKey = strings.ToUpper(n.SignatureKey)
	assert.True(t, VerifySignature(upper, testServerKey))

	tampered := n
	tampered.GrossAmount = "1.00"
	assert.False(t, VerifySignature(tampered, testServerKey))

	assert.False(t, VerifySignature(n, "other-key"))
	assert.False(t, VerifySignature(n, ""))

	empty := n
	empty.SignatureKey = ""
	assert.False(t, VerifySignature(empty, testServerKey))
}
