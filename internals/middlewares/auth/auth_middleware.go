// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	authModel "kursusku_backend/internals/features/users/auth/model"
	helper "kursusku_backend/internals/helpers"
	"kursusku_backend/internals/helpers/apperror"
)

const (
	LocUserID   = "user_id"
	LocUserRole = "user_role"
	LocUserName = "user_name"
)

// AuthMiddleware mewajibkan access token valid (header Bearer atau cookie access_token).
func AuthMiddleware(db *gorm.DB, jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return apperror.Unauthorized(err.Error())
		}

		claims, err := verifyToken(c, db, jwtSecret, tokenString)
		if err != nil {
			return err
		}

		userID, err := extractUserID(claims)
		if err != nil {
			log.Warn().Err(err).Msg("[AUTH] user_id tidak valid")
			return apperror.Unauthorized("Unauthorized - Invalid or missing user ID")
		}
		if err := ensureUserActive(c, db, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Unauthorized("Unauthorized - User not found")
			}
			return apperror.Forbidden("Akun Anda telah dinonaktifkan")
		}

		c.Locals(LocUserID, userID.String())
		storeBasicClaimsToLocals(c, claims)
		helper.SetRawAccessToken(c, tokenString)
		return c.Next()
	}
}

// OptionalAuth: token valid → isi Locals; tanpa token / token rusak → lanjut sebagai anonymous.
func OptionalAuth(db *gorm.DB, jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return c.Next()
		}
		claims, err := verifyToken(c, db, jwtSecret, tokenString)
		if err != nil {
			log.Debug().Err(err).Msg("[AUTH] token opsional ditolak, lanjut sebagai anonymous")
			return c.Next()
		}
		userID, err := extractUserID(claims)
		if err != nil || ensureUserActive(c, db, userID) != nil {
			return c.Next()
		}
		c.Locals(LocUserID, userID.String())
		storeBasicClaimsToLocals(c, claims)
		return c.Next()
	}
}

// verifyToken: blacklist → signature → typ → exp.
func verifyToken(c *fiber.Ctx, db *gorm.DB, secret, tokenString string) (jwt.MapClaims, error) {
	if secret == "" {
		log.Error().Msg("[AUTH] JWT_SECRET kosong")
		return nil, apperror.Internal("Missing JWT Secret", nil)
	}

	var existing authModel.TokenBlacklistModel
	err := db.WithContext(c.UserContext()).Where("token = ?", tokenString).First(&existing).Error
	if err == nil {
		log.Warn().Msg("[AUTH] token ditemukan di blacklist")
		return nil, apperror.Unauthorized("Unauthorized - Token is blacklisted")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("gagal cek blacklist", err)
	}

	claims := jwt.MapClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}); err != nil {
		return nil, apperror.Unauthorized("Unauthorized - Token parse error")
	}

	if typ, ok := claims["typ"].(string); ok && typ != "access" {
		return nil, apperror.Unauthorized("Unauthorized - Wrong token type")
	}
	if err := validateTokenExpiry(claims, 30*time.Second); err != nil {
		return nil, apperror.Unauthorized("Unauthorized - Token expired")
	}
	return claims, nil
}
