package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"kursusku_backend/internals/features/finance/payments/dto"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/metrics"
)

/* =========================================================
   Gateway contract
========================================================= */

type SnapResult struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Gateway membungkus API payment gateway. Semua method wajib menghormati ctx.
type Gateway interface {
	CreateSnap(ctx context.Context, req dto.TransactionRequest) (*SnapResult, error)
	CheckStatus(ctx context.Context, orderID string) (*dto.GatewayStatus, error)
	Cancel(ctx context.Context, orderID string) error
	Refund(ctx context.Context, orderID string, amount int64, reason string) error
}

/* =========================================================
   Midtrans Client
========================================================= */

type MidtransGateway struct {
	snap    snap.Client
	core    coreapi.Client
	timeout time.Duration
}

// NewMidtransGateway: useProduction=true untuk Production, false untuk Sandbox.
func NewMidtransGateway(serverKey string, useProduction bool, timeout time.Duration) *MidtransGateway {
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	g := &MidtransGateway{timeout: timeout}
	g.snap.New(serverKey, env)
	g.core.New(serverKey, env)
	return g
}

func (g *MidtransGateway) CreateSnap(ctx context.Context, req dto.TransactionRequest) (*SnapResult, error) {
	sreq := buildSnapRequest(req)
	resp, err := withTimeout(ctx, g.timeout, "create_snap", func() (*snap.Response, *midtrans.Error) {
		return g.snap.CreateTransaction(sreq)
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Token == "" {
		return nil, apperror.Upstream("payment gateway tidak mengembalikan token", false, nil)
	}
	return &SnapResult{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func (g *MidtransGateway) CheckStatus(ctx context.Context, orderID string) (*dto.GatewayStatus, error) {
	resp, err := withTimeout(ctx, g.timeout, "check_status", func() (*coreapi.TransactionStatusResponse, *midtrans.Error) {
		return g.core.CheckTransaction(orderID)
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, apperror.Upstream("payment gateway tidak mengembalikan status", true, nil)
	}
	if resp.TransactionStatus == "" {
		code, _ := strconv.Atoi(resp.StatusCode)
		return nil, apperror.Upstream("status transaksi tidak ditemukan di gateway", code >= 500, nil)
	}
	return &dto.GatewayStatus{
		TransactionID:     resp.TransactionID,
		OrderID:           resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		PaymentType:       resp.PaymentType,
		StatusCode:        resp.StatusCode,
		GrossAmount:       resp.GrossAmount,
	}, nil
}

func (g *MidtransGateway) Cancel(ctx context.Context, orderID string) error {
	_, err := withTimeout(ctx, g.timeout, "cancel", func() (struct{}, *midtrans.Error) {
		_, mErr := g.core.CancelTransaction(orderID)
		return struct{}{}, mErr
	})
	return err
}

func (g *MidtransGateway) Refund(ctx context.Context, orderID string, amount int64, reason string) error {
	req := &coreapi.RefundReq{
		RefundKey: "RF-" + strings.ToUpper(uuid.NewString()[:8]),
		Amount:    amount,
		Reason:    truncate(reason, 255),
	}
	_, err := withTimeout(ctx, g.timeout, "refund", func() (struct{}, *midtrans.Error) {
		_, mErr := g.core.RefundTransaction(orderID, req)
		return struct{}{}, mErr
	})
	return err
}

/* =========================================================
   Request builder
========================================================= */

func buildSnapRequest(req dto.TransactionRequest) *snap.Request {
	items := make([]midtrans.ItemDetails, 0, len(req.Items)+1)
	for _, it := range req.Items {
		items = append(items, midtrans.ItemDetails{
			ID:       safe(it.ID),
			Name:     truncate(it.Name, 50),
			Price:    it.Price,
			Qty:      it.Quantity,
			Category: "COURSE",
		})
	}
	// Midtrans mewajibkan sum(item) == gross_amount → diskon jadi item negatif
	if req.Discount > 0 {
		items = append(items, midtrans.ItemDetails{
			ID:    "DISCOUNT",
			Name:  "Diskon",
			Price: -req.Discount,
			Qty:   1,
		})
	}

	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.GrossAmount(),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.FirstName,
			LName: req.Customer.LastName,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items: &items,
	}
	if req.Description != "" {
		sreq.CustomField1 = truncate(req.Description, 40)
	}
	return sreq
}

/* =========================================================
   Timeout + error mapping
========================================================= */

type callResult[T any] struct {
	val T
	err *midtrans.Error
}

// withTimeout menjalankan panggilan SDK (blocking, tanpa ctx) dengan batas waktu.
// Timeout / 5xx / network → Upstream retryable; 4xx → Upstream non-retryable.
func withTimeout[T any](ctx context.Context, timeout time.Duration, op string, fn func() (T, *midtrans.Error)) (T, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan callResult[T], 1)
	go func() {
		v, e := fn()
		ch <- callResult[T]{val: v, err: e}
	}()

	var zero T
	select {
	case <-ctx.Done():
		err := apperror.Upstream("payment gateway timeout", true, ctx.Err())
		metrics.ObserveGateway(op, start, err)
		return zero, err
	case r := <-ch:
		if r.err != nil {
			err := gatewayError(r.err)
			metrics.ObserveGateway(op, start, err)
			return zero, err
		}
		metrics.ObserveGateway(op, start, nil)
		return r.val, nil
	}
}

func gatewayError(e *midtrans.Error) error {
	retryable := e.StatusCode == 0 || e.StatusCode >= 500
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "payment gateway error"
	}
	return apperror.Upstream(msg, retryable, fmt.Errorf("midtrans status %d: %s", e.StatusCode, msg))
}

/* =========================================================
   Utils
========================================================= */

// GenerateOrderID: PREFIX-YYYYMMDD-HHMMSS-XXXXXXXX
func GenerateOrderID(prefix string, now time.Time) string {
	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102-150405"), uuid.NewString()[:8]))
}

// truncate memotong di batas rune, n dalam byte.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func safe(s string) string {
	if s == "" {
		return "item-1"
	}
	return s
}
