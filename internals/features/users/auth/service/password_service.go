package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	authHelper "kursusku_backend/internals/features/users/auth/helper"
	"kursusku_backend/internals/helpers/apperror"
)

// ChangePassword: user OAuth-only boleh set password pertama tanpa old_password.
// Semua refresh token user di-revoke setelah berhasil.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	u, err := s.activeUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasPassword() {
		if oldPassword == "" {
			return apperror.ValidationMsg("old_password", "old_password wajib diisi")
		}
		if bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(oldPassword)) != nil {
			return apperror.ValidationMsg("old_password", "Password lama salah")
		}
		if oldPassword == newPassword {
			return apperror.ValidationMsg("new_password", "Password baru harus berbeda")
		}
	}
	if fe := authHelper.ValidatePassword("new_password", newPassword); fe != nil {
		return apperror.Validation(*fe)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return apperror.Internal("Gagal memproses password", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.Internal("Gagal menyimpan password", err)
	}
	n, err := s.repo.RevokeUserRefreshTokens(ctx, userID, s.now())
	if err != nil {
		log.Warn().Err(err).Msg("[AUTH] gagal revoke refresh token")
	}
	log.Info().Str("user_id", userID.String()).Int64("revoked", n).Msg("🔑 password diganti")
	return nil
}

// RevokeSessions mencabut semua refresh token milik user (dipakai saat akun dinonaktifkan).
func (s *AuthService) RevokeSessions(ctx context.Context, userID uuid.UUID) error {
	n, err := s.repo.RevokeUserRefreshTokens(ctx, userID, s.now())
	if err != nil {
		return apperror.Internal("gagal mencabut sesi", err)
	}
	log.Info().Str("user_id", userID.String()).Int64("revoked", n).Msg("🔒 sesi user dicabut")
	return nil
}
