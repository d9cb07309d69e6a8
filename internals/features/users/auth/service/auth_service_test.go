package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/users/auth/dto"
	authModel "kursusku_backend/internals/features/users/auth/model"
	"kursusku_backend/internals/features/users/auth/repository"
	userModel "kursusku_backend/internals/features/users/user/model"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/testdb"
)

const (
	accessSecret  = "access-secret"
	refreshSecret = "refresh-secret"
)

func newService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := testdb.New(t, &userModel.UserModel{}, &authModel.RefreshTokenModel{}, &authModel.TokenBlacklistModel{})
	s := NewAuthService(repository.NewAuthRepository(db), Options{AccessSecret: accessSecret, RefreshSecret: refreshSecret})
	s.bcryptCost = bcrypt.MinCost
	return s, db
}

func register(t *testing.T, s *AuthService, name string) *userModel.UserModel {
	t.Helper()
	u, err := s.Register(context.Background(), dto.RegisterRequest{
		UserName: name,
		FullName: "User " + name,
		Email:    name + "@Example.com",
		Password: "rahasia123",
	})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	u := register(t, s, "budi")
	assert.Equal(t, "budi@example.com", u.Email)
	assert.Equal(t, "user", u.Role)
	require.True(t, u.HasPassword())
	assert.NotEqual(t, "rahasia123", *u.Password)

	_, err := s.Register(ctx, dto.RegisterRequest{UserName: "budi2", Email: "BUDI@example.com", Password: "rahasia123"})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	_, err = s.Register(ctx, dto.RegisterRequest{UserName: "b!", Email: "bukan-email", Password: "pendek"})
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindValidation, ae.Kind)
	assert.Len(t, ae.Details, 3)
}

func TestLogin(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	u := register(t, s, "cici")

	res, err := s.Login(ctx, "CICI@example.com", "rahasia123", ClientMeta{UserAgent: "test", IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(res.AccessToken, claims, func(*jwt.Token) (any, error) { return []byte(accessSecret), nil })
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims["id"])
	assert.Equal(t, "user", claims["role"])
	assert.Equal(t, "access", claims["typ"])

	var stored authModel.RefreshTokenModel
	require.NoError(t, db.First(&stored, "user_id = ?", u.ID).Error)
	assert.Equal(t, computeRefreshHash(res.RefreshToken, refreshSecret), stored.TokenHash)

	_, err = s.Login(ctx, "cici", "rahasia123", ClientMeta{})
	assert.NoError(t, err)

	_, err = s.Login(ctx, "cici", "salah999", ClientMeta{})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
	_, err = s.Login(ctx, "tidak-ada", "rahasia123", ClientMeta{})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	require.NoError(t, db.Model(&userModel.UserModel{}).Where("id = ?", u.ID).Update("is_active", false).Error)
	_, err = s.Login(ctx, "cici", "rahasia123", ClientMeta{})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

func TestLogin_OAuthOnlyUserHasNoPassword(t *testing.T) {
	s, db := newService(t)
	u := &userModel.UserModel{UserName: "oauthonly", Email: "o@example.com", IsActive: true}
	require.NoError(t, db.Create(u).Error)

	_, err := s.Login(context.Background(), "oauthonly", "", ClientMeta{})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestRefresh_RotatesAndRejectsReuse(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	register(t, s, "dodi")

	login, err := s.Login(ctx, "dodi", "rahasia123", ClientMeta{})
	require.NoError(t, err)

	next, err := s.Refresh(ctx, login.RefreshToken, ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, next.RefreshToken)

	// token lama sekali pakai
	_, err = s.Refresh(ctx, login.RefreshToken, ClientMeta{})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	_, err = s.Refresh(ctx, next.RefreshToken, ClientMeta{})
	assert.NoError(t, err)

	// access token bukan refresh token
	_, err = s.Refresh(ctx, next.AccessToken, ClientMeta{})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	_, err = s.Refresh(ctx, "", ClientMeta{})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestRefresh_ConcurrentSingleWinner(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	register(t, s, "eko")
	login, err := s.Login(ctx, "eko", "rahasia123", ClientMeta{})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Refresh(ctx, login.RefreshToken, ClientMeta{}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestLogout_BlacklistsAndDropsRefresh(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	register(t, s, "fani")
	login, err := s.Login(ctx, "fani", "rahasia123", ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, login.AccessToken, login.RefreshToken))
	// idempotent
	require.NoError(t, s.Logout(ctx, login.AccessToken, login.RefreshToken))
	require.NoError(t, s.Logout(ctx, "", ""))

	black, err := s.repo.IsBlacklisted(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.True(t, black)

	var row authModel.TokenBlacklistModel
	require.NoError(t, db.First(&row, "token = ?", login.AccessToken).Error)
	assert.True(t, row.ExpiredAt.After(login.AccessExpiresAt))

	_, err = s.Refresh(ctx, login.RefreshToken, ClientMeta{})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestChangePassword(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	u := register(t, s, "gilang")
	login, err := s.Login(ctx, "gilang", "rahasia123", ClientMeta{})
	require.NoError(t, err)

	err = s.ChangePassword(ctx, u.ID, "salah123", "baru12345")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	err = s.ChangePassword(ctx, u.ID, "rahasia123", "tanpaangka")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	require.NoError(t, s.ChangePassword(ctx, u.ID, "rahasia123", "baru12345"))
	_, err = s.Login(ctx, "gilang", "rahasia123", ClientMeta{})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
	_, err = s.Login(ctx, "gilang", "baru12345", ClientMeta{})
	assert.NoError(t, err)

	// sesi lama ter-revoke
	_, err = s.Refresh(ctx, login.RefreshToken, ClientMeta{})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	// user OAuth-only boleh set password tanpa old_password
	o := &userModel.UserModel{UserName: "oauth", Email: "oauth@example.com", IsActive: true}
	require.NoError(t, db.Create(o).Error)
	require.NoError(t, s.ChangePassword(ctx, o.ID, "", "pertama123"))
	_, err = s.Login(ctx, "oauth", "pertama123", ClientMeta{})
	assert.NoError(t, err)
}

func TestCleanupExpired(t *testing.T) {
	s, db := newService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	s.now = func() time.Time { return now }

	require.NoError(t, s.repo.BlacklistToken(ctx, "lama", now.Add(-time.Hour)))
	require.NoError(t, s.repo.BlacklistToken(ctx, "baru", now.Add(time.Hour)))
	u := register(t, s, "hana")
	require.NoError(t, s.repo.CreateRefreshToken(ctx, &authModel.RefreshTokenModel{
		UserID: u.ID, TokenHash: []byte("x"), ExpiresAt: now.Add(-time.Minute),
	}))

	n, err := s.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var left int64
	require.NoError(t, db.Unscoped().Model(&authModel.TokenBlacklistModel{}).Count(&left).Error)
	assert.Equal(t, int64(1), left)
}
