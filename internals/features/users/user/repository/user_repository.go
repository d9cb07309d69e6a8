package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kursusku_backend/internals/features/users/user/dto"
	"kursusku_backend/internals/features/users/user/model"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.UserModel, error) {
	var u model.UserModel
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// List: pencarian di user_name/email/full_name (case-insensitive).
func (r *UserRepository) List(ctx context.Context, f dto.ListUsersQuery, offset, limit int) ([]model.UserModel, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.UserModel{})
	if s := strings.ToLower(strings.TrimSpace(f.Q)); s != "" {
		like := "%" + s + "%"
		q = q.Where("LOWER(user_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.UserModel
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.UserModel{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}
