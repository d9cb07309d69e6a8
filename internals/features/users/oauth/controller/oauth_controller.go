package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	authController "kursusku_backend/internals/features/users/auth/controller"
	authDTO "kursusku_backend/internals/features/users/auth/dto"
	authSvc "kursusku_backend/internals/features/users/auth/service"
	"kursusku_backend/internals/features/users/oauth/dto"
	"kursusku_backend/internals/features/users/oauth/service"
	helper "kursusku_backend/internals/helpers"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/logger"
	authMw "kursusku_backend/internals/middlewares/auth"
)

const stateCookie = "oauth_state"

type OAuthController struct {
	OAuth *service.OAuthService
	Auth  *authController.AuthController
	// kosong → callback membalas JSON
	SuccessRedirect string
}

func NewOAuthController(oauth *service.OAuthService, auth *authController.AuthController, successRedirect string) *OAuthController {
	return &OAuthController{OAuth: oauth, Auth: auth, SuccessRedirect: successRedirect}
}

func (h *OAuthController) setStateCookie(c *fiber.Ctx, state string, ttl time.Duration) {
	ck := &fiber.Cookie{
		Name:     stateCookie,
		Value:    state,
		HTTPOnly: true,
		Secure:   h.Auth.CookieSecure,
		SameSite: "Lax",
		Path:     "/api/auth/oauth",
		Expires:  time.Now().Add(ttl),
	}
	if state == "" {
		ck.MaxAge = -1
	}
	c.Cookie(ck)
}

// session menerbitkan token + cookie untuk user hasil OAuth.
func (h *OAuthController) session(c *fiber.Ctx, res *service.CallbackResult) (*authDTO.LoginResponse, error) {
	meta := authSvc.ClientMeta{UserAgent: c.Get("User-Agent"), IP: c.IP()}
	login, err := h.Auth.Service.IssueSession(c.UserContext(), res.User, meta)
	if err != nil {
		return nil, err
	}
	h.Auth.SetSessionCookies(c, login.TokenPair)
	return login, nil
}

// GET /api/auth/oauth/:provider → redirect ke halaman login provider
func (h *OAuthController) Redirect(c *fiber.Ctx) error {
	authURL, state, err := h.OAuth.BeginAuth(c.Params("provider"), nil)
	if err != nil {
		return err
	}
	h.setStateCookie(c, state, service.StateTTL)
	return c.Redirect(authURL, fiber.StatusFound)
}

// GET /api/auth/oauth/:provider/link → URL authorize untuk menghubungkan akun (user login)
func (h *OAuthController) Link(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	authURL, state, err := h.OAuth.BeginAuth(c.Params("provider"), &userID)
	if err != nil {
		return err
	}
	h.setStateCookie(c, state, service.StateTTL)
	return helper.JsonOK(c, "ok", dto.AuthorizeURLResponse{URL: authURL})
}

// GET /api/auth/oauth/:provider/callback?code=&state=
func (h *OAuthController) Callback(c *fiber.Ctx) error {
	if e := strings.TrimSpace(c.Query("error")); e != "" {
		logger.Info(c).Str("provider", c.Params("provider")).Str("error", e).Msg("[OAUTH] user membatalkan / provider menolak")
		return apperror.Unauthorized("Login dibatalkan: " + e)
	}
	state := c.Query("state")
	if cookieState := c.Cookies(stateCookie); cookieState == "" || cookieState != state {
		return apperror.Unauthorized("OAuth state tidak cocok dengan browser")
	}
	h.setStateCookie(c, "", 0)

	var sessionUser *uuid.UUID
	if id, err := authMw.GetUserID(c); err == nil {
		sessionUser = &id
	}

	res, err := h.OAuth.HandleCallback(c.UserContext(), c.Params("provider"), c.Query("code"), state, sessionUser)
	if err != nil {
		return err
	}
	if res.Linked {
		return helper.JsonOK(c, "Akun berhasil dihubungkan", dto.FromAccount(res.Account))
	}

	login, err := h.session(c, res)
	if err != nil {
		return err
	}
	if h.SuccessRedirect != "" {
		return c.Redirect(h.SuccessRedirect, fiber.StatusFound)
	}
	if res.Created {
		return helper.JsonCreated(c, "Akun dibuat & login berhasil", login)
	}
	return helper.JsonOK(c, "Login berhasil", login)
}

// POST /api/auth/login-google {id_token}
func (h *OAuthController) LoginGoogle(c *fiber.Ctx) error {
	var req authDTO.GoogleLoginRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.OAuth.LoginWithGoogleIDToken(c.UserContext(), req.IDToken)
	if err != nil {
		return err
	}
	login, err := h.session(c, res)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Login berhasil", login)
}

// DELETE /api/auth/oauth/:provider
func (h *OAuthController) Unlink(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	if err := h.OAuth.UnlinkAccount(c.UserContext(), userID, c.Params("provider")); err != nil {
		return err
	}
	return helper.JsonDeleted(c, "Akun berhasil diputus", nil)
}

// GET /api/auth/oauth/accounts
func (h *OAuthController) Accounts(c *fiber.Ctx) error {
	userID, err := authMw.GetUserID(c)
	if err != nil {
		return err
	}
	rows, err := h.OAuth.ListAccounts(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "ok", dto.FromAccounts(rows))
}
