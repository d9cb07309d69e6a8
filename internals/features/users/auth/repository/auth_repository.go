package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	authModel "kursusku_backend/internals/features/users/auth/model"
	userModel "kursusku_backend/internals/features/users/user/model"
)

type AuthRepository struct {
	DB *gorm.DB
}

func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{DB: db}
}

/* ===================== USERS ===================== */

// FindUserByIdentifier: email (case-insensitive) atau user_name.
func (r *AuthRepository) FindUserByIdentifier(ctx context.Context, identifier string) (*userModel.UserModel, error) {
	var u userModel.UserModel
	idf := strings.TrimSpace(identifier)
	if err := r.DB.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) OR user_name = ?", idf, idf).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *AuthRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*userModel.UserModel, error) {
	var u userModel.UserModel
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *AuthRepository) CreateUser(ctx context.Context, u *userModel.UserModel) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *AuthRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	return r.DB.WithContext(ctx).
		Model(&userModel.UserModel{}).
		Where("id = ?", userID).
		Update("password", hash).Error
}

/* ===================== REFRESH TOKENS ===================== */

func (r *AuthRepository) CreateRefreshToken(ctx context.Context, rt *authModel.RefreshTokenModel) error {
	return r.DB.WithContext(ctx).Create(rt).Error
}

// FindActiveRefreshToken: belum di-revoke & belum expired.
func (r *AuthRepository) FindActiveRefreshToken(ctx context.Context, hash []byte, now time.Time) (*authModel.RefreshTokenModel, error) {
	var rt authModel.RefreshTokenModel
	if err := r.DB.WithContext(ctx).
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", hash, now).
		First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// DeleteRefreshTokenByHash mengembalikan jumlah baris terhapus; 0 berarti token sudah dipakai request lain.
func (r *AuthRepository) DeleteRefreshTokenByHash(ctx context.Context, hash []byte) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("token_hash = ?", hash).
		Delete(&authModel.RefreshTokenModel{})
	return res.RowsAffected, res.Error
}

// RevokeUserRefreshTokens dipakai setelah ganti password: semua sesi lain wajib login ulang.
func (r *AuthRepository) RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&authModel.RefreshTokenModel{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now)
	return res.RowsAffected, res.Error
}

func (r *AuthRepository) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", before, before).
		Delete(&authModel.RefreshTokenModel{})
	return res.RowsAffected, res.Error
}

/* ===================== BLACKLIST ===================== */

// BlacklistToken idempotent: token yang sama dua kali tidak error.
func (r *AuthRepository) BlacklistToken(ctx context.Context, token string, expiredAt time.Time) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&authModel.TokenBlacklistModel{Token: token, ExpiredAt: expiredAt}).Error
}

func (r *AuthRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&authModel.TokenBlacklistModel{}).
		Where("token = ?", token).
		Count(&n).Error
	return n > 0, err
}

// DeleteExpiredBlacklist: hard delete per batch.
func (r *AuthRepository) DeleteExpiredBlacklist(ctx context.Context, before time.Time, limit int) (int64, error) {
	var ids []uint
	if err := r.DB.WithContext(ctx).
		Unscoped().
		Model(&authModel.TokenBlacklistModel{}).
		Where("expired_at < ?", before).
		Limit(limit).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&authModel.TokenBlacklistModel{})
	return res.RowsAffected, res.Error
}
