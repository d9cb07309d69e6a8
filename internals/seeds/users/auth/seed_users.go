package user

import (
	"errors"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"kursusku_backend/internals/constants"
	"kursusku_backend/internals/features/users/user/model"
)

type UserSeed struct {
	UserName string `json:"user_name"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// SeedUsersFromJSON: user yang email-nya sudah ada dilewati. Return jumlah user baru.
func SeedUsersFromJSON(db *gorm.DB, filePath string) (int, error) {
	log.Info().Str("file", filePath).Msg("📥 Membaca file user")

	file, err := os.ReadFile(filePath)
	if err != nil {
		return 0, err
	}
	var inputs []UserSeed
	if err := sonic.Unmarshal(file, &inputs); err != nil {
		return 0, err
	}

	inserted := 0
	for _, data := range inputs {
		email := strings.ToLower(strings.TrimSpace(data.Email))
		if email == "" || data.Password == "" {
			log.Warn().Str("user_name", data.UserName).Msg("⚠️ seed user tanpa email/password, dilewati")
			continue
		}
		role := data.Role
		if role == "" {
			role = constants.RoleUser
		}
		if !constants.IsValidRole(role) {
			log.Warn().Str("email", email).Str("role", role).Msg("⚠️ role tidak dikenal, dilewati")
			continue
		}

		var existing model.UserModel
		err := db.Where("email = ?", email).First(&existing).Error
		if err == nil {
			log.Info().Str("email", email).Msg("ℹ️ User sudah ada, dilewati")
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return inserted, err
		}

		// 🔐 Hash password sebelum disimpan
		hashed, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
		if err != nil {
			return inserted, err
		}
		pw := string(hashed)
		newUser := model.UserModel{
			UserName: data.UserName,
			FullName: data.FullName,
			Email:    email,
			Password: &pw,
			Role:     role,
			IsActive: true,
		}
		if err := db.Create(&newUser).Error; err != nil {
			log.Error().Err(err).Str("email", email).Msg("❌ Gagal insert user")
			continue
		}
		inserted++
		log.Info().Str("email", email).Msg("✅ Berhasil insert user")
	}
	return inserted, nil
}
