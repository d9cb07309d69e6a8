package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	userModel "kursusku_backend/internals/features/users/user/model"
)

type OAuthRepository struct {
	DB *gorm.DB
}

func NewOAuthRepository(db *gorm.DB) *OAuthRepository {
	return &OAuthRepository{DB: db}
}

func (r *OAuthRepository) FindAccount(ctx context.Context, provider, providerUserID string) (*userModel.OAuthAccountModel, error) {
	var a userModel.OAuthAccountModel
	if err := r.DB.WithContext(ctx).
		Where("oauth_account_provider = ? AND oauth_account_provider_user_id = ?", provider, providerUserID).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *OAuthRepository) FindAccountByUser(ctx context.Context, userID uuid.UUID, provider string) (*userModel.OAuthAccountModel, error) {
	var a userModel.OAuthAccountModel
	if err := r.DB.WithContext(ctx).
		Where("oauth_account_user_id = ? AND oauth_account_provider = ?", userID, provider).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *OAuthRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]userModel.OAuthAccountModel, error) {
	var rows []userModel.OAuthAccountModel
	err := r.DB.WithContext(ctx).
		Where("oauth_account_user_id = ?", userID).
		Order("oauth_account_linked_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *OAuthRepository) CreateAccount(ctx context.Context, a *userModel.OAuthAccountModel) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *OAuthRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*userModel.UserModel, error) {
	var u userModel.UserModel
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *OAuthRepository) FindUserByEmail(ctx context.Context, email string) (*userModel.UserModel, error) {
	var u userModel.UserModel
	if err := r.DB.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *OAuthRepository) UserNameExists(ctx context.Context, name string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&userModel.UserModel{}).Where("user_name = ?", name).Count(&n).Error
	return n > 0, err
}

// CreateUserWithAccount: user baru + link provider dalam satu transaksi.
func (r *OAuthRepository) CreateUserWithAccount(ctx context.Context, u *userModel.UserModel, a *userModel.OAuthAccountModel) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		a.UserID = u.ID
		return tx.Create(a).Error
	})
}

// DeleteAccountIfNotLast menghapus link hanya jika user masih punya cara login lain
// (password lokal atau link provider lain). 0 baris → ditolak.
func (r *OAuthRepository) DeleteAccountIfNotLast(ctx context.Context, accountID, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("oauth_account_id = ?", accountID).
		Where(`(EXISTS (SELECT 1 FROM users u WHERE u.id = ? AND u.password IS NOT NULL AND u.password <> '')
			OR (SELECT COUNT(*) FROM oauth_accounts oa WHERE oa.oauth_account_user_id = ?) > 1)`, userID, userID).
		Delete(&userModel.OAuthAccountModel{})
	return res.RowsAffected, res.Error
}
