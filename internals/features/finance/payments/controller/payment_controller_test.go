package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "kursusku_backend/internals/features/finance/payments/dto"
	model "kursusku_backend/internals/features/finance/payments/model"
	"kursusku_backend/internals/features/finance/payments/repository"
	svc "kursusku_backend/internals/features/finance/payments/service"
	"kursusku_backend/internals/helpers/testdb"
	"kursusku_backend/internals/middlewares"
	authMw "kursusku_backend/internals/middlewares/auth"
)

const serverKey = "SB-Mid-server-test"

type nopGateway struct{}

func (nopGateway) CreateSnap(context.Context, dto.TransactionRequest) (*svc.SnapResult, error) {
	return &svc.SnapResult{Token: "tok"}, nil
}
func (nopGateway) CheckStatus(context.Context, string) (*dto.GatewayStatus, error) {
	return &dto.GatewayStatus{TransactionStatus: "pending"}, nil
}
func (nopGateway) Cancel(context.Context, string) error                { return nil }
func (nopGateway) Refund(context.Context, string, int64, string) error { return nil }

func setup(t *testing.T) (*fiber.App, *repository.PaymentRepository) {
	t.Helper()
	db := testdb.New(t, &model.PaymentModel{}, &model.PaymentGatewayEventModel{})
	repo := repository.NewPaymentRepository(db)
	ctl := NewPaymentController(svc.NewPaymentService(repo, nopGateway{}, serverKey))

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler(false)})
	app.Post("/api/payments/notification", ctl.MidtransWebhook)

	// fake auth: user id dari header
	u := app.Group("/api/u", func(c *fiber.Ctx) error {
		c.Locals(authMw.LocUserID, c.Get("X-Test-User"))
		c.Locals(authMw.LocUserRole, "user")
		return c.Next()
	})
	u.Get("/payments/:transaction_id", ctl.GetMyPayment)
	return app, repo
}

func seed(t *testing.T, repo *repository.PaymentRepository, userID uuid.UUID) *model.PaymentModel {
	t.Helper()
	p := &model.PaymentModel{
		PaymentTransactionID: "TRX-" + uuid.NewString()[:8],
		PaymentOrderID:       "ORD-" + uuid.NewString()[:8],
		PaymentUserID:        userID,
		PaymentAmountIDR:     99000,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func notif(orderID, status string) dto.MidtransNotification {
	n := dto.MidtransNotification{
		TransactionID:     "gw-" + orderID,
		OrderID:           orderID,
		TransactionStatus: status,
		StatusCode:        "200",
		GrossAmount:       "99000.00",
	}
	n.SignatureKey = svc.ComputeSignature(n.TransactionID, n.StatusCode, n.GrossAmount, serverKey)
	return n
}

func TestMidtransWebhook(t *testing.T) {
	app, repo := setup(t)
	p := seed(t, repo, uuid.New())

	t.Run("tampered payload", func(t *testing.T) {
		n := notif(p.PaymentOrderID, "settlement")
		n.GrossAmount = "1.00"
		code, body := postJSON(t, app, "/api/payments/notification", n)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "INVALID_SIGNATURE", body["error_code"])
	})

	t.Run("unknown order", func(t *testing.T) {
		code, body := postJSON(t, app, "/api/payments/notification", notif("ORD-UNKNOWN", "settlement"))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ignored", body["status"])
	})

	t.Run("settlement", func(t *testing.T) {
		code, body := postJSON(t, app, "/api/payments/notification", notif(p.PaymentOrderID, "settlement"))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "settlement", body["payment_status"])
		assert.Equal(t, true, body["changed"])

		code, body = postJSON(t, app, "/api/payments/notification", notif(p.PaymentOrderID, "settlement"))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, false, body["changed"])
	})
}

func TestGetMyPayment_HidesOtherUsersPayment(t *testing.T) {
	app, repo := setup(t)
	owner := uuid.New()
	p := seed(t, repo, owner)

	get := func(user uuid.UUID) int {
		req := httptest.NewRequest(http.MethodGet, "/api/u/payments/"+p.PaymentTransactionID, nil)
		req.Header.Set("X-Test-User", user.String())
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusOK, get(owner))
	assert.Equal(t, http.StatusNotFound, get(uuid.New()))
}
