package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/users/auth/dto"
	authModel "kursusku_backend/internals/features/users/auth/model"
	userModel "kursusku_backend/internals/features/users/user/model"
	"kursusku_backend/internals/helpers/apperror"
)

const (
	accessTTLDefault  = 24 * time.Hour
	refreshTTLDefault = 7 * 24 * time.Hour

	typAccess  = "access"
	typRefresh = "refresh"
)

// ClientMeta disimpan bersama refresh token (audit sesi).
type ClientMeta struct {
	UserAgent string
	IP        string
}

func strptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// computeRefreshHash: DB hanya menyimpan HMAC refresh token, bukan plaintext.
func computeRefreshHash(token, secret string) []byte {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write([]byte(token))
	return m.Sum(nil)
}

func buildAccessClaims(u *userModel.UserModel, now time.Time, ttl time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"typ":       typAccess,
		"sub":       u.ID.String(),
		"id":        u.ID.String(),
		"user_name": u.UserName,
		"full_name": u.FullName,
		"role":      u.Role,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
}

func buildRefreshClaims(userID uuid.UUID, now time.Time, ttl time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"typ": typRefresh,
		"sub": userID.String(),
		"id":  userID.String(),
		// jti: dua refresh di detik yang sama tetap beda hash
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
}

// issueTokens menandatangani access + refresh lalu menyimpan hash refresh.
func (s *AuthService) issueTokens(ctx context.Context, u *userModel.UserModel, meta ClientMeta) (*dto.TokenPair, error) {
	now := s.now()

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, buildAccessClaims(u, now, s.accessTTL)).
		SignedString([]byte(s.accessSecret))
	if err != nil {
		return nil, apperror.Internal("Gagal membuat access token", err)
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, buildRefreshClaims(u.ID, now, s.refreshTTL)).
		SignedString([]byte(s.refreshSecret))
	if err != nil {
		return nil, apperror.Internal("Gagal membuat refresh token", err)
	}

	if err := s.repo.CreateRefreshToken(ctx, &authModel.RefreshTokenModel{
		UserID:    u.ID,
		TokenHash: computeRefreshHash(refresh, s.refreshSecret),
		ExpiresAt: now.Add(s.refreshTTL),
		UserAgent: strptr(meta.UserAgent),
		IP:        strptr(meta.IP),
	}); err != nil {
		return nil, apperror.Internal("Gagal menyimpan refresh token", err)
	}

	return &dto.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshToken:     refresh,
		RefreshExpiresAt: now.Add(s.refreshTTL),
	}, nil
}

// parseRefresh memvalidasi tanda tangan, exp dan typ lalu mengembalikan user id.
func (s *AuthService) parseRefresh(token string) (uuid.UUID, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.refreshSecret), nil
	})
	if err != nil || !tok.Valid {
		return uuid.Nil, apperror.Unauthorized("Refresh token invalid")
	}
	claims, _ := tok.Claims.(jwt.MapClaims)
	if typ, _ := claims["typ"].(string); typ != typRefresh {
		return uuid.Nil, apperror.Unauthorized("Refresh token invalid")
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, apperror.Unauthorized("Refresh token invalid")
	}
	return id, nil
}

// Refresh: rotasi. Token lama dihapus (sekali pakai) sebelum pasangan baru diterbitkan.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*dto.LoginResponse, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized("Refresh token tidak ada")
	}
	userID, err := s.parseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	hash := computeRefreshHash(refreshToken, s.refreshSecret)
	rt, err := s.repo.FindActiveRefreshToken(ctx, hash, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("Refresh token tidak dikenal")
		}
		return nil, apperror.Internal("Gagal cek refresh token", err)
	}
	if rt.UserID != userID {
		log.Warn().Str("user_id", userID.String()).Msg("[AUTH] refresh token milik user lain")
		return nil, apperror.Unauthorized("Refresh token invalid")
	}

	n, err := s.repo.DeleteRefreshTokenByHash(ctx, hash)
	if err != nil {
		return nil, apperror.Internal("Gagal rotasi refresh token", err)
	}
	if n == 0 {
		return nil, apperror.Unauthorized("Refresh token sudah dipakai")
	}

	u, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	pair, err := s.issueTokens(ctx, u, meta)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{User: dto.FromUser(u), TokenPair: *pair}, nil
}

// blacklistUntil: kapan baris blacklist boleh dibersihkan (exp token + 1 menit).
func (s *AuthService) blacklistUntil(accessToken string) time.Time {
	now := s.now()
	fallback := now.Add(2 * time.Minute)

	claims := jwt.MapClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.accessSecret), nil
	}); err != nil {
		return fallback
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return fallback
	}
	until := time.Unix(int64(exp), 0).UTC()
	if until.Before(now) {
		return now.Add(time.Minute)
	}
	return until.Add(time.Minute)
}
