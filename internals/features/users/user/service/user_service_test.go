package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/users/user/dto"
	"kursusku_backend/internals/features/users/user/model"
	"kursusku_backend/internals/features/users/user/repository"
	"kursusku_backend/internals/helpers/apperror"
	"kursusku_backend/internals/helpers/testdb"
)

type revokeSpy struct{ revoked []uuid.UUID }

func (r *revokeSpy) RevokeSessions(_ context.Context, id uuid.UUID) error {
	r.revoked = append(r.revoked, id)
	return nil
}

func seed(t *testing.T, db *gorm.DB, name, role string) model.UserModel {
	t.Helper()
	u := model.UserModel{UserName: name, FullName: "User " + name, Email: name + "@example.com", Role: role, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func ptr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	db := testdb.New(t, &model.UserModel{})
	s := NewUserService(repository.NewUserRepository(db), nil)
	ctx := context.Background()
	u := seed(t, db, "rani", "user")

	got, err := s.UpdateProfile(ctx, u.ID, dto.UpdateProfileRequest{FullName: ptr("  Rani Putri "), Phone: ptr("0812")})
	require.NoError(t, err)
	assert.Equal(t, "Rani Putri", got.FullName)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "0812", *got.Phone)

	got, err = s.UpdateProfile(ctx, u.ID, dto.UpdateProfileRequest{Phone: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, got.Phone)

	_, err = s.UpdateProfile(ctx, u.ID, dto.UpdateProfileRequest{})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = s.UpdateProfile(ctx, u.ID, dto.UpdateProfileRequest{FullName: ptr(" ")})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = s.UpdateProfile(ctx, uuid.New(), dto.UpdateProfileRequest{FullName: ptr("Siapa")})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestSetRoleAndActive(t *testing.T) {
	db := testdb.New(t, &model.UserModel{})
	spy := &revokeSpy{}
	s := NewUserService(repository.NewUserRepository(db), spy)
	ctx := context.Background()
	admin := seed(t, db, "admin1", "admin")
	u := seed(t, db, "budi", "user")

	got, err := s.SetRole(ctx, admin.ID, u.ID, "instructor")
	require.NoError(t, err)
	assert.Equal(t, "instructor", got.Role)

	_, err = s.SetRole(ctx, admin.ID, admin.ID, "user")
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	got, err = s.SetActive(ctx, admin.ID, u.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, []uuid.UUID{u.ID}, spy.revoked)

	got, err = s.SetActive(ctx, admin.ID, u.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Len(t, spy.revoked, 1)

	_, err = s.SetActive(ctx, admin.ID, admin.ID, false)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestList(t *testing.T) {
	db := testdb.New(t, &model.UserModel{})
	s := NewUserService(repository.NewUserRepository(db), nil)
	ctx := context.Background()
	seed(t, db, "citra", "user")
	seed(t, db, "dimas", "instructor")
	seed(t, db, "cahyo", "user")

	rows, total, err := s.List(ctx, dto.ListUsersQuery{Q: "CAHYO"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "cahyo", rows[0].UserName)

	rows, total, err = s.List(ctx, dto.ListUsersQuery{Role: "instructor"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "dimas", rows[0].UserName)

	_, total, err = s.List(ctx, dto.ListUsersQuery{}, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
