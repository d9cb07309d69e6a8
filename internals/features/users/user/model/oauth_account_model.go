package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OAuthAccountModel menghubungkan user lokal dengan akun di identity provider.
// (provider, provider_user_id) unik; satu user boleh punya banyak provider.
type OAuthAccountModel struct {
	ID             uuid.UUID `gorm:"column:oauth_account_id;type:uuid;primaryKey" json:"oauth_account_id"`
	UserID         uuid.UUID `gorm:"column:oauth_account_user_id;type:uuid;not null;index;uniqueIndex:uq_oauth_user_provider" json:"oauth_account_user_id"`
	Provider       string    `gorm:"column:oauth_account_provider;size:30;not null;uniqueIndex:uq_oauth_provider_uid;uniqueIndex:uq_oauth_user_provider" json:"oauth_account_provider"`
	ProviderUserID string    `gorm:"column:oauth_account_provider_user_id;size:255;not null;uniqueIndex:uq_oauth_provider_uid" json:"oauth_account_provider_user_id"`
	Email          string    `gorm:"column:oauth_account_email;size:255" json:"oauth_account_email"`
	LinkedAt       time.Time `gorm:"column:oauth_account_linked_at;not null" json:"oauth_account_linked_at"`
	CreatedAt      time.Time `gorm:"column:oauth_account_created_at;autoCreateTime" json:"oauth_account_created_at"`
}

func (OAuthAccountModel) TableName() string {
	return "oauth_accounts"
}

func (a *OAuthAccountModel) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.LinkedAt.IsZero() {
		a.LinkedAt = time.Now().UTC()
	}
	return nil
}
