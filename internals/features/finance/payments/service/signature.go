package service

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"kursusku_backend/internals/features/finance/payments/dto"
)

// ComputeSignature = hex(SHA512(transaction_id + status_code + gross_amount + serverKey)).
func ComputeSignature(transactionID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(transactionID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature membandingkan signature_key payload secara constant-time.
func VerifySignature(n dto.MidtransNotification, serverKey string) bool {
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if got == "" || serverKey == "" {
		return false
	}
	want := ComputeSignature(n.TransactionID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
