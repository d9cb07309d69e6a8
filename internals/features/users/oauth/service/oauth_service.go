package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"kursusku_backend/internals/constants"
	"kursusku_backend/internals/features/users/oauth/repository"
	userModel "kursusku_backend/internals/features/users/user/model"
	"kursusku_backend/internals/helpers/apperror"
)

const ErrOnlyLinkedAccount = "Cannot unlink the only linked account"

// CallbackResult: hasil login / linking via provider.
type CallbackResult struct {
	User    *userModel.UserModel
	Account *userModel.OAuthAccountModel
	Linked  bool // mode linking
	Created bool // user baru dibuat
}

type OAuthService struct {
	repo      *repository.OAuthRepository
	providers map[string]Provider
	verifier  IDTokenVerifier
	now       func() time.Time
}

func NewOAuthService(repo *repository.OAuthRepository, verifier IDTokenVerifier, providers ...Provider) *OAuthService {
	s := &OAuthService{
		repo:      repo,
		providers: make(map[string]Provider, len(providers)),
		verifier:  verifier,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, p := range providers {
		s.providers[strings.ToLower(p.Name())] = p
	}
	return s
}

func (s *OAuthService) provider(name string) (Provider, error) {
	p, ok := s.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, apperror.NotFound(fmt.Sprintf("OAuth provider %q tidak didukung", name))
	}
	return p, nil
}

// BeginAuth mengembalikan URL authorize provider + state. linkUserID non-nil → mode linking.
func (s *OAuthService) BeginAuth(providerName string, linkUserID *uuid.UUID) (string, string, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return "", "", err
	}
	state, err := GenerateState(p.Name(), linkUserID, s.now())
	if err != nil {
		return "", "", err
	}
	return p.AuthCodeURL(state), state, nil
}

// HandleCallback: validasi state → tukar code → ambil profil → login / link.
// sessionUserID adalah user yang sedang login di browser (boleh nil untuk mode login).
func (s *OAuthService) HandleCallback(ctx context.Context, providerName, code, state string, sessionUserID *uuid.UUID) (*CallbackResult, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}
	st, err := ValidateState(state, p.Name(), s.now())
	if err != nil {
		return nil, err
	}
	linkUserID := st.LinkUserID()
	if linkUserID != nil && (sessionUserID == nil || *sessionUserID != *linkUserID) {
		log.Warn().Str("provider", p.Name()).Msg("[OAUTH] linking state tidak cocok dengan sesi")
		return nil, apperror.Forbidden("Linking harus dilakukan oleh user yang sama")
	}

	profile, err := p.FetchProfile(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.EnsureOAuthAccount(ctx, profile, linkUserID)
}

// LoginWithGoogleIDToken: verifikasi ID token lalu alur yang sama dengan callback mode login.
func (s *OAuthService) LoginWithGoogleIDToken(ctx context.Context, idToken string) (*CallbackResult, error) {
	if s.verifier == nil {
		return nil, apperror.Internal("Google ID token verifier belum dikonfigurasi", nil)
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, apperror.ValidationMsg("id_token", "id_token wajib diisi")
	}
	profile, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return s.EnsureOAuthAccount(ctx, profile, nil)
}

// EnsureOAuthAccount:
//   - link provider sudah ada → login sebagai pemiliknya (mode linking: harus user yang sama)
//   - mode linking → tempel ke linkUserID
//   - mode login, email milik user lokal → Conflict (tidak ada merge otomatis)
//   - selain itu → buat user + link
func (s *OAuthService) EnsureOAuthAccount(ctx context.Context, p *Profile, linkUserID *uuid.UUID) (*CallbackResult, error) {
	if p == nil || strings.TrimSpace(p.ProviderUserID) == "" {
		return nil, apperror.Upstream("profil provider tidak lengkap", false, nil)
	}
	provider := strings.ToLower(p.Provider)
	email := strings.ToLower(strings.TrimSpace(p.Email))

	existing, err := s.repo.FindAccount(ctx, provider, p.ProviderUserID)
	switch {
	case err == nil:
		if linkUserID != nil && existing.UserID != *linkUserID {
			return nil, apperror.Conflict("Akun " + provider + " ini sudah terhubung ke user lain")
		}
		u, err := s.user(ctx, existing.UserID)
		if err != nil {
			return nil, err
		}
		return &CallbackResult{User: u, Account: existing, Linked: linkUserID != nil}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperror.Internal("Gagal cek akun OAuth", err)
	}

	acc := &userModel.OAuthAccountModel{
		Provider:       provider,
		ProviderUserID: p.ProviderUserID,
		Email:          email,
		LinkedAt:       s.now(),
	}

	if linkUserID != nil {
		return s.link(ctx, *linkUserID, acc)
	}

	if email == "" {
		return nil, apperror.ValidationMsg("email", "Provider tidak mengembalikan email")
	}
	if !p.EmailVerified {
		return nil, apperror.Forbidden("Email di " + provider + " belum terverifikasi")
	}
	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("Email sudah terdaftar. Login dengan password lalu hubungkan akun " + provider + " dari pengaturan akun")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("Gagal cek email", err)
	}

	userName, err := s.uniqueUserName(ctx, email)
	if err != nil {
		return nil, err
	}
	u := &userModel.UserModel{
		UserName: userName,
		FullName: strings.TrimSpace(p.Name),
		Email:    email,
		Role:     constants.RoleUser,
		IsActive: true,
	}
	if p.AvatarURL != "" {
		avatar := p.AvatarURL
		u.AvatarURL = &avatar
	}
	if err := s.repo.CreateUserWithAccount(ctx, u, acc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// request paralel dari provider account yang sama
			if again, ferr := s.repo.FindAccount(ctx, provider, p.ProviderUserID); ferr == nil {
				owner, uerr := s.user(ctx, again.UserID)
				if uerr != nil {
					return nil, uerr
				}
				return &CallbackResult{User: owner, Account: again}, nil
			}
			return nil, apperror.Conflict("Email atau username sudah terdaftar")
		}
		return nil, apperror.Internal("Gagal membuat user OAuth", err)
	}
	log.Info().Str("user_id", u.ID.String()).Str("provider", provider).Msg("👤 user baru via OAuth")
	return &CallbackResult{User: u, Account: acc, Created: true}, nil
}

func (s *OAuthService) link(ctx context.Context, userID uuid.UUID, acc *userModel.OAuthAccountModel) (*CallbackResult, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindAccountByUser(ctx, userID, acc.Provider); err == nil {
		return nil, apperror.Conflict("User sudah terhubung ke akun " + acc.Provider + " lain")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("Gagal cek akun OAuth", err)
	}

	acc.UserID = userID
	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("Akun " + acc.Provider + " ini sudah terhubung ke user lain")
		}
		return nil, apperror.Internal("Gagal menghubungkan akun", err)
	}
	log.Info().Str("user_id", userID.String()).Str("provider", acc.Provider).Msg("🔗 akun OAuth terhubung")
	return &CallbackResult{User: u, Account: acc, Linked: true}, nil
}

// UnlinkAccount ditolak kalau link ini satu-satunya cara login (tanpa password, tanpa provider lain).
func (s *OAuthService) UnlinkAccount(ctx context.Context, userID uuid.UUID, providerName string) error {
	provider := strings.ToLower(strings.TrimSpace(providerName))
	acc, err := s.repo.FindAccountByUser(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Akun " + provider + " tidak terhubung")
		}
		return apperror.Internal("Gagal cek akun OAuth", err)
	}
	n, err := s.repo.DeleteAccountIfNotLast(ctx, acc.ID, userID)
	if err != nil {
		return apperror.Internal("Gagal memutus akun", err)
	}
	if n == 0 {
		return apperror.StateConflict(ErrOnlyLinkedAccount)
	}
	log.Info().Str("user_id", userID.String()).Str("provider", provider).Msg("✂️ akun OAuth diputus")
	return nil
}

func (s *OAuthService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]userModel.OAuthAccountModel, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("Gagal mengambil akun OAuth", err)
	}
	return rows, nil
}

func (s *OAuthService) user(ctx context.Context, id uuid.UUID) (*userModel.UserModel, error) {
	u, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User tidak ditemukan")
		}
		return nil, apperror.Internal("Gagal mengambil user", err)
	}
	return u, nil
}

var userNameUnsafe = regexp.MustCompile(`[^a-z0-9_.]+`)

// uniqueUserName: local-part email, ditambah angka acak kalau sudah dipakai.
func (s *OAuthService) uniqueUserName(ctx context.Context, email string) (string, error) {
	base := email
	if i := strings.IndexByte(base, '@'); i >= 0 {
		base = base[:i]
	}
	base = strings.Trim(userNameUnsafe.ReplaceAllString(base, ""), ".")
	if len(base) < 3 {
		base = "user" + base
	}
	if len(base) > 40 {
		base = base[:40]
	}

	candidate := base
	for i := 0; i < 8; i++ {
		taken, err := s.repo.UserNameExists(ctx, candidate)
		if err != nil {
			return "", apperror.Internal("Gagal cek username", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%04d", base, rand.Intn(10000))
	}
	return base + strings.ReplaceAll(uuid.NewString(), "-", "")[:8], nil
}
