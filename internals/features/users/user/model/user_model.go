package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel merepresentasikan tabel users di database
type UserModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserName string    `gorm:"size:50;not null;uniqueIndex" json:"user_name"`
	FullName string    `gorm:"size:120" json:"full_name"`
	Email    string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	// nil untuk akun yang hanya login via OAuth
	Password  *string   `gorm:"column:password" json:"-"`
	Phone     *string   `gorm:"size:20" json:"phone,omitempty"`
	AvatarURL *string   `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	Role      string    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName memastikan nama tabel sesuai dengan skema database
func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = "user"
	}
	return nil
}

func (u *UserModel) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// DisplayName: full name kalau ada, fallback ke user_name.
func (u *UserModel) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.UserName
}
