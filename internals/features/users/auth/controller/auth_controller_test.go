package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authModel "kursusku_backend/internals/features/users/auth/model"
	"kursusku_backend/internals/features/users/auth/repository"
	"kursusku_backend/internals/features/users/auth/service"
	userModel "kursusku_backend/internals/features/users/user/model"
	"kursusku_backend/internals/helpers/testdb"
	"kursusku_backend/internals/middlewares"
	authMw "kursusku_backend/internals/middlewares/auth"
)

const secret = "controller-secret"

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	db := testdb.New(t, &userModel.UserModel{}, &authModel.RefreshTokenModel{}, &authModel.TokenBlacklistModel{})
	s := service.NewAuthService(repository.NewAuthRepository(db), service.Options{AccessSecret: secret, RefreshSecret: secret + "-r"})
	ctl := NewAuthController(s, false)

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler(false)})
	requireAuth := authMw.AuthMiddleware(db, secret)
	g := app.Group("/api/auth")
	g.Post("/register", ctl.Register)
	g.Post("/login", ctl.Login)
	g.Post("/refresh-token", ctl.RefreshToken)
	g.Post("/logout", ctl.Logout)
	g.Get("/me", requireAuth, ctl.Me)
	return app
}

type call struct {
	method, path, body, bearer string
	cookies                    []*http.Cookie
	headers                    map[string]string
}

func do(t *testing.T, app *fiber.App, in call) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(in.method, in.path, strings.NewReader(in.body))
	req.Header.Set("Content-Type", "application/json")
	if in.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+in.bearer)
	}
	for k, v := range in.headers {
		req.Header.Set(k, v)
	}
	for _, ck := range in.cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestAuthFlow(t *testing.T) {
	app := newApp(t)

	resp, _ := do(t, app, call{method: http.MethodPost, path: "/api/auth/register",
		body: `{"user_name":"rina","email":"rina@example.com","password":"rahasia123"}`})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = do(t, app, call{method: http.MethodPost, path: "/api/auth/register",
		body: `{"user_name":"rina","email":"rina@example.com","password":"rahasia123"}`})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = do(t, app, call{method: http.MethodPost, path: "/api/auth/login",
		body: `{"identifier":"rina","password":"salah1234"}`})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := do(t, app, call{method: http.MethodPost, path: "/api/auth/login",
		body: `{"identifier":"rina@example.com","password":"rahasia123"}`})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	access := data["access_token"].(string)
	require.NotEmpty(t, access)
	refreshCk := cookieByName(resp, "refresh_token")
	csrfCk := cookieByName(resp, "csrf_token")
	require.NotNil(t, refreshCk)
	require.NotNil(t, csrfCk)

	resp, body = do(t, app, call{method: http.MethodGet, path: "/api/auth/me", bearer: access})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "rina", body["data"].(map[string]any)["user_name"])

	// refresh via cookie tanpa header CSRF → 403
	resp, _ = do(t, app, call{method: http.MethodPost, path: "/api/auth/refresh-token", cookies: []*http.Cookie{refreshCk, csrfCk}})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = do(t, app, call{method: http.MethodPost, path: "/api/auth/refresh-token",
		cookies: []*http.Cookie{refreshCk, csrfCk},
		headers: map[string]string{"X-CSRF-Token": csrfCk.Value}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	newAccess := body["data"].(map[string]any)["access_token"].(string)

	resp, _ = do(t, app, call{method: http.MethodPost, path: "/api/auth/logout", bearer: newAccess})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, call{method: http.MethodGet, path: "/api/auth/me", bearer: newAccess})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshToken_Body(t *testing.T) {
	app := newApp(t)
	do(t, app, call{method: http.MethodPost, path: "/api/auth/register",
		body: `{"user_name":"sari","email":"sari@example.com","password":"rahasia123"}`})
	_, body := do(t, app, call{method: http.MethodPost, path: "/api/auth/login",
		body: `{"identifier":"sari","password":"rahasia123"}`})
	refresh := body["data"].(map[string]any)["refresh_token"].(string)

	resp, _ := do(t, app, call{method: http.MethodPost, path: "/api/auth/refresh-token", body: `{"refresh_token":"` + refresh + `"}`})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, call{method: http.MethodPost, path: "/api/auth/refresh-token", body: `{"refresh_token":"` + refresh + `"}`})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, app, call{method: http.MethodPost, path: "/api/auth/refresh-token"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
