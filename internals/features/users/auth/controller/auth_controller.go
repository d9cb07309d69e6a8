package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kursusku_backend/internals/features/users/auth/dto"
	"kursusku_backend/internals/features/users/auth/service"
	helper "kursusku_backend/internals/helpers"
	"kursusku_backend/internals/helpers/apperror"
	authMw "kursusku_backend/internals/middlewares/auth"
)

type AuthController struct {
	Service *service.AuthService
	// false hanya di development (http://localhost)
	CookieSecure bool
}

func NewAuthController(s *service.AuthService, cookieSecure bool) *AuthController {
	return &AuthController{Service: s, CookieSecure: cookieSecure}
}

func clientMeta(c *fiber.Ctx) service.ClientMeta {
	return service.ClientMeta{UserAgent: c.Get("User-Agent"), IP: c.IP()}
}

func (ctrl *AuthController) cookie(name, value string, expires time.Time, httpOnly bool) *fiber.Cookie {
	sameSite := "None"
	if !ctrl.CookieSecure {
		sameSite = "Lax"
	}
	ck := &fiber.Cookie{
		Name:     name,
		Value:    value,
		HTTPOnly: httpOnly,
		Secure:   ctrl.CookieSecure,
		SameSite: sameSite,
		Path:     "/",
		Expires:  expires,
	}
	if value == "" {
		ck.MaxAge = -1
	}
	return ck
}

// SetSessionCookies: access + refresh (HttpOnly) dan csrf_token (dibaca JS untuk header X-CSRF-Token).
func (ctrl *AuthController) SetSessionCookies(c *fiber.Ctx, pair dto.TokenPair) {
	c.Cookie(ctrl.cookie(helper.CookieAccessToken, pair.AccessToken, pair.AccessExpiresAt, true))
	c.Cookie(ctrl.cookie(helper.CookieRefreshToken, pair.RefreshToken, pair.RefreshExpiresAt, true))
	c.Cookie(ctrl.cookie(helper.CookieCSRFToken, strings.ReplaceAll(uuid.NewString(), "-", ""), pair.RefreshExpiresAt, false))
}

func (ctrl *AuthController) clearSessionCookies(c *fiber.Ctx) {
	expired := time.Now().UTC().Add(-time.Hour)
	for _, name := range []string{helper.CookieAccessToken, helper.CookieRefreshToken, helper.CookieCSRFToken} {
		c.Cookie(ctrl.cookie(name, "", expired, name != helper.CookieCSRFToken))
	}
}

// usesCookieAuth: request tanpa header Bearer tapi membawa cookie → wajib CSRF.
func usesCookieAuth(c *fiber.Ctx, cookieName string) bool {
	return strings.TrimSpace(c.Cookies(cookieName)) != "" &&
		!strings.HasPrefix(strings.TrimSpace(c.Get("Authorization")), "Bearer ")
}

func csrfGuard(c *fiber.Ctx) error {
	if err := helper.CheckCSRFCookieHeader(c); err != nil {
		return apperror.Forbidden(err.Error())
	}
	return nil
}

// POST /api/auth/register
func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	u, err := ctrl.Service.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Registrasi berhasil", dto.FromUser(u))
}

// POST /api/auth/login
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := ctrl.Service.Login(c.UserContext(), req.Identifier, req.Password, clientMeta(c))
	if err != nil {
		return err
	}
	ctrl.SetSessionCookies(c, res.TokenPair)
	return helper.JsonOK(c, "Login berhasil", res)
}

// POST /api/auth/refresh-token
// Refresh dari cookie (web, wajib CSRF) atau body {"refresh_token"} (mobile).
func (ctrl *AuthController) RefreshToken(c *fiber.Ctx) error {
	token := helper.GetRefreshTokenFromCookie(c)
	if token != "" {
		if err := csrfGuard(c); err != nil {
			return err
		}
	} else {
		var req dto.RefreshRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return apperror.ValidationMsg("body", "Invalid request body")
			}
		}
		token = strings.TrimSpace(req.RefreshToken)
	}

	res, err := ctrl.Service.Refresh(c.UserContext(), token, clientMeta(c))
	if err != nil {
		return err
	}
	ctrl.SetSessionCookies(c, res.TokenPair)
	return helper.JsonOK(c, "Token diperbarui", res)
}

// POST /api/auth/logout
func (ctrl *AuthController) Logout(c *fiber.Ctx) error {
	if usesCookieAuth(c, helper.CookieAccessToken) {
		if err := csrfGuard(c); err != nil {
			return err
		}
	}
	refresh := helper.GetRefreshTokenFromCookie(c)
	if refresh == "" {
		var req dto.RefreshRequest
		_ = c.BodyParser(&req)
		refresh = strings.TrimSpace(req.RefreshToken)
	}
	if err := ctrl.Service.Logout(c.UserContext(), helper.GetRawAccessToken(c), refresh); err != nil {
		return err
	}
	ctrl.clearSessionCookies(c)
	return helper.JsonOK(c, "Logout successful", nil)
}

// GET /api/auth/me
func (ctrl *AuthController) Me(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	u, err := ctrl.Service.Me(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.FromUser(u))
}

// POST /api/auth/change-password
func (ctrl *AuthController) ChangePassword(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	if err := ctrl.Service.ChangePassword(c.UserContext(), userID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Password berhasil diganti", nil)
}
