package helper

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"kursusku_backend/internals/helpers/apperror"
)

const (
	LocRawToken = "raw_token"

	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
	CookieCSRFToken    = "csrf_token"
	HeaderCSRFToken    = "X-CSRF-Token"
)

// GetRawAccessToken: Locals(raw_token) → "Authorization: Bearer" → cookie access_token.
func GetRawAccessToken(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocRawToken).(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if tok, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "); ok && strings.TrimSpace(tok) != "" {
		return strings.TrimSpace(tok)
	}
	return strings.TrimSpace(c.Cookies(CookieAccessToken))
}

func GetRefreshTokenFromCookie(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Cookies(CookieRefreshToken))
}

func SetRawAccessToken(c *fiber.Ctx, raw string) {
	if raw = strings.TrimSpace(raw); raw != "" {
		c.Locals(LocRawToken, raw)
	}
}

// CheckCSRFCookieHeader: double-submit, header X-CSRF-Token == cookie csrf_token.
func CheckCSRFCookieHeader(c *fiber.Ctx) error {
	cookie := strings.TrimSpace(c.Cookies(CookieCSRFToken))
	header := strings.TrimSpace(c.Get(HeaderCSRFToken))
	switch {
	case cookie == "":
		return apperror.Forbidden("CSRF token missing (cookie)")
	case header == "":
		return apperror.Forbidden("CSRF token missing (header)")
	case subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1:
		return apperror.Forbidden("CSRF token mismatch")
	}
	return nil
}
