package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kursusku_backend/internals/features/finance/payments/dto"
)

func TestBuildSnapRequest_DiscountMatchesGross(t *testing.T) {
	req := dto.TransactionRequest{
		OrderID:  "ORD-1",
		UserID:   uuid.New(),
		Amount:   100000,
		Discount: 10000,
		Customer: dto.CustomerDetails{FirstName: "Budi", Email: "budi@example.com", Phone: "081234567890"},
		Items:    []dto.ItemDetail{{ID: "c1", Name: "Golang Dasar", Price: 100000, Quantity: 1}},
	}
	sreq := buildSnapRequest(req)

	require.NotNil(t, sreq.Items)
	var sum int64
	for _, it := range *sreq.Items {
		sum += it.Price * int64(it.Qty)
	}
	assert.EqualValues(t, 90000, sreq.TransactionDetails.GrossAmt)
	assert.Equal(t, sreq.TransactionDetails.GrossAmt, sum)
	assert.Len(t, *sreq.Items, 2)
}

func TestBuildSnapRequest_NoDiscount(t *testing.T) {
	req := dto.TransactionRequest{
		OrderID: "ORD-2",
		Amount:  150000,
		Items:   []dto.ItemDetail{{Name: "Golang Dasar", Price: 75000, Quantity: 2}},
	}
	sreq := buildSnapRequest(req)
	assert.EqualValues(t, 150000, sreq.TransactionDetails.GrossAmt)
	require.Len(t, *sreq.Items, 1)
	assert.Equal(t, "item-1", (*sreq.Items)[0].ID)
}

func TestTruncate_RuneBoundary(t *testing.T) {
	name := strings.Repeat("a", 49) + "é…"
	got := truncate(name, 50)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 49), got)

	assert.Equal(t, "Kursus: Dasar", truncate("Kursus: Dasar", 40))
	assert.Equal(t, "日本", truncate("日本語", 8))
}
