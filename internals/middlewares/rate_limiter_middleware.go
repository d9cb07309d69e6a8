package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rs/zerolog/log"

	helper "kursusku_backend/internals/helpers"
)

type limitRule struct {
	name    string
	max     int
	window  time.Duration
	message string
}

var (
	globalRule   = limitRule{"global", 100, time.Minute, "❌ Terlalu banyak permintaan. Silakan coba lagi nanti."}
	loginRule    = limitRule{"login", 5, time.Minute, "❌ Terlalu banyak percobaan login. Coba beberapa saat lagi."}
	registerRule = limitRule{"register", 3, 5 * time.Minute, "❌ Terlalu banyak percobaan pendaftaran. Tunggu beberapa menit ya."}
	webhookRule  = limitRule{"webhook", 300, time.Minute, "too many notifications"}
	verifyRule   = limitRule{"cert_verify", 30, time.Minute, "❌ Terlalu banyak permintaan verifikasi. Silakan coba lagi nanti."}
)

// nil → memory storage per instance
var limiterStorage fiber.Storage

// UseLimiterStorage dipanggil di main sebelum route dipasang.
func UseLimiterStorage(s fiber.Storage) { limiterStorage = s }

func newLimiter(rule limitRule) fiber.Handler {
	retryAfter := strconv.Itoa(int(rule.window.Seconds()))
	return limiter.New(limiter.Config{
		Max:        rule.max,
		Expiration: rule.window,
		Storage:    limiterStorage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return rule.name + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Warn().Str("limiter", rule.name).Str("ip", c.IP()).Str("path", c.Path()).Msg("🚦 rate limit")
			c.Set(fiber.HeaderRetryAfter, retryAfter)
			return helper.JsonError(c, fiber.StatusTooManyRequests, rule.message)
		},
	})
}

func GlobalRateLimiter() fiber.Handler { return newLimiter(globalRule) }

// LoginRateLimiter lebih ketat dari global.
func LoginRateLimiter() fiber.Handler { return newLimiter(loginRule) }

func RegisterRateLimiter() fiber.Handler { return newLimiter(registerRule) }

// WebhookRateLimiter longgar: Midtrans bisa mengirim burst notifikasi.
func WebhookRateLimiter() fiber.Handler { return newLimiter(webhookRule) }

func CertificateVerifyRateLimiter() fiber.Handler { return newLimiter(verifyRule) }
