package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"kursusku_backend/internals/constants"
	"kursusku_backend/internals/features/users/auth/dto"
	authHelper "kursusku_backend/internals/features/users/auth/helper"
	"kursusku_backend/internals/features/users/auth/repository"
	userModel "kursusku_backend/internals/features/users/user/model"
	"kursusku_backend/internals/helpers/apperror"
)

type Options struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type AuthService struct {
	repo *repository.AuthRepository

	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	bcryptCost    int

	now func() time.Time
}

func NewAuthService(repo *repository.AuthRepository, opt Options) *AuthService {
	s := &AuthService{
		repo:          repo,
		accessSecret:  opt.AccessSecret,
		refreshSecret: opt.RefreshSecret,
		accessTTL:     opt.AccessTTL,
		refreshTTL:    opt.RefreshTTL,
		bcryptCost:    bcrypt.DefaultCost,
		now:           func() time.Time { return time.Now().UTC() },
	}
	if s.accessTTL <= 0 {
		s.accessTTL = accessTTLDefault
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = refreshTTLDefault
	}
	if s.refreshSecret == "" {
		log.Warn().Msg("⚠️ JWT_REFRESH_SECRET kosong, refresh token memakai JWT_SECRET")
		s.refreshSecret = s.accessSecret
	}
	return s
}

// HashPassword dipakai juga oleh fitur lain yang membuat user (seed admin, dsb).
func (s *AuthService) HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

/* ==========================
   REGISTER
========================== */

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*userModel.UserModel, error) {
	userName := strings.TrimSpace(req.UserName)
	email := authHelper.NormalizeEmail(req.Email)
	if err := authHelper.ValidateRegistration(userName, email, req.Password); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal("Gagal memproses password", err)
	}
	u := &userModel.UserModel{
		UserName: userName,
		FullName: strings.TrimSpace(req.FullName),
		Email:    email,
		Password: &hash,
		Phone:    req.Phone,
		Role:     constants.RoleUser,
		IsActive: true,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("Email atau username sudah terdaftar")
		}
		return nil, apperror.Internal("Gagal membuat user", err)
	}
	log.Info().Str("user_id", u.ID.String()).Msg("👤 user baru terdaftar")
	return u, nil
}

/* ==========================
   LOGIN
========================== */

func (s *AuthService) Login(ctx context.Context, identifier, password string, meta ClientMeta) (*dto.LoginResponse, error) {
	u, err := s.repo.FindUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("Identifier atau password salah")
		}
		return nil, apperror.Internal("Gagal mengambil data user", err)
	}
	// akun OAuth-only tidak punya password lokal
	if !u.HasPassword() || bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(password)) != nil {
		return nil, apperror.Unauthorized("Identifier atau password salah")
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("Akun Anda telah dinonaktifkan. Hubungi admin.")
	}
	return s.IssueSession(ctx, u, meta)
}

// IssueSession menerbitkan token untuk user yang sudah terautentikasi (password atau OAuth).
func (s *AuthService) IssueSession(ctx context.Context, u *userModel.UserModel, meta ClientMeta) (*dto.LoginResponse, error) {
	if !u.IsActive {
		return nil, apperror.Forbidden("Akun Anda telah dinonaktifkan. Hubungi admin.")
	}
	pair, err := s.issueTokens(ctx, u, meta)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{User: dto.FromUser(u), TokenPair: *pair}, nil
}

/* ==========================
   ME
========================== */

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	u, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User tidak ditemukan")
		}
		return nil, apperror.Internal("Gagal mengambil data user", err)
	}
	return u, nil
}

func (s *AuthService) activeUser(ctx context.Context, userID uuid.UUID) (*userModel.UserModel, error) {
	u, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("User tidak ditemukan")
		}
		return nil, apperror.Internal("Gagal mengambil data user", err)
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("Akun dinonaktifkan")
	}
	return u, nil
}

/* ==========================
   LOGOUT
========================== */

// Logout idempotent: token kosong / sudah di-blacklist tetap sukses.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		if err := s.repo.BlacklistToken(ctx, accessToken, s.blacklistUntil(accessToken)); err != nil {
			return apperror.Internal("Gagal logout", err)
		}
	} else {
		log.Info().Msg("[AUTH] logout tanpa access token")
	}
	if refreshToken != "" {
		if _, err := s.repo.DeleteRefreshTokenByHash(ctx, computeRefreshHash(refreshToken, s.refreshSecret)); err != nil {
			log.Warn().Err(err).Msg("[AUTH] gagal hapus refresh token saat logout")
		}
	}
	return nil
}

/* ==========================
   CLEANUP (dipanggil scheduler)
========================== */

const cleanupBatch = 500

// CleanupExpired menghapus baris blacklist & refresh token yang sudah tidak berguna.
func (s *AuthService) CleanupExpired(ctx context.Context) (int64, error) {
	now := s.now()
	var total int64
	for {
		n, err := s.repo.DeleteExpiredBlacklist(ctx, now, cleanupBatch)
		if err != nil {
			return total, err
		}
		total += n
		if n < cleanupBatch {
			break
		}
	}
	n, err := s.repo.DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		return total, err
	}
	return total + n, nil
}
