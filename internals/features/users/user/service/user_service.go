package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/users/user/dto"
	"kursusku_backend/internals/features/users/user/model"
	"kursusku_backend/internals/features/users/user/repository"
	"kursusku_backend/internals/helpers/apperror"
)

// SessionRevoker: dipanggil setelah user dinonaktifkan.
type SessionRevoker interface {
	RevokeSessions(ctx context.Context, userID uuid.UUID) error
}

type UserService struct {
	repo     *repository.UserRepository
	sessions SessionRevoker
}

func NewUserService(repo *repository.UserRepository, sessions SessionRevoker) *UserService {
	return &UserService{repo: repo, sessions: sessions}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*model.UserModel, error) {
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("User tidak ditemukan")
	}
	if err != nil {
		return nil, apperror.Internal("gagal mengambil user", err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, f dto.ListUsersQuery, offset, limit int) ([]model.UserModel, int64, error) {
	rows, total, err := s.repo.List(ctx, f, offset, limit)
	if err != nil {
		return nil, 0, apperror.Internal("gagal mengambil daftar user", err)
	}
	return rows, total, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req dto.UpdateProfileRequest) (*model.UserModel, error) {
	req.Normalize()
	if req.Empty() {
		return nil, apperror.ValidationMsg("body", "tidak ada field yang diubah")
	}
	updates := map[string]any{}
	if req.FullName != nil {
		if *req.FullName == "" {
			return nil, apperror.ValidationMsg("full_name", "full_name tidak boleh kosong")
		}
		updates["full_name"] = *req.FullName
	}
	if req.Phone != nil {
		if *req.Phone == "" {
			updates["phone"] = nil
		} else {
			updates["phone"] = *req.Phone
		}
	}
	if req.AvatarURL != nil {
		if *req.AvatarURL == "" {
			updates["avatar_url"] = nil
		} else {
			updates["avatar_url"] = *req.AvatarURL
		}
	}
	return s.apply(ctx, userID, updates)
}

// SetRole: admin tidak bisa menurunkan role dirinya sendiri.
func (s *UserService) SetRole(ctx context.Context, actorID, targetID uuid.UUID, role string) (*model.UserModel, error) {
	if actorID == targetID {
		return nil, apperror.StateConflict("Tidak bisa mengubah role akun sendiri")
	}
	u, err := s.apply(ctx, targetID, map[string]any{"role": role})
	if err != nil {
		return nil, err
	}
	log.Info().Str("actor", actorID.String()).Str("user_id", targetID.String()).Str("role", role).Msg("👤 role user diubah")
	return u, nil
}

// SetActive: nonaktif → semua refresh token dicabut; access token lama ditolak middleware (is_active).
func (s *UserService) SetActive(ctx context.Context, actorID, targetID uuid.UUID, active bool) (*model.UserModel, error) {
	if actorID == targetID && !active {
		return nil, apperror.StateConflict("Tidak bisa menonaktifkan akun sendiri")
	}
	u, err := s.apply(ctx, targetID, map[string]any{"is_active": active})
	if err != nil {
		return nil, err
	}
	if !active && s.sessions != nil {
		if err := s.sessions.RevokeSessions(ctx, targetID); err != nil {
			log.Warn().Err(err).Str("user_id", targetID.String()).Msg("⚠️ gagal mencabut sesi user nonaktif")
		}
	}
	return u, nil
}

func (s *UserService) apply(ctx context.Context, id uuid.UUID, updates map[string]any) (*model.UserModel, error) {
	n, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, apperror.Internal("gagal menyimpan user", err)
	}
	if n == 0 {
		return nil, apperror.NotFound("User tidak ditemukan")
	}
	return s.Get(ctx, id)
}
