package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"kursusku_backend/internals/configs"
	certModel "kursusku_backend/internals/features/certificates/model"
	courseModel "kursusku_backend/internals/features/courses/course/model"
	enrollmentModel "kursusku_backend/internals/features/courses/enrollment/model"
	paymentModel "kursusku_backend/internals/features/finance/payments/model"
	authModel "kursusku_backend/internals/features/users/auth/model"
	userModel "kursusku_backend/internals/features/users/user/model"
)

func ConnectDB(cfg *configs.Config) (*gorm.DB, error) {
	log.Info().Msg("🔌 Koneksi ke PostgreSQL...")

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL belum diset")
	}

	level := gormLogger.Warn
	if cfg.IsDevelopment() {
		level = gormLogger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseURL,
		PreferSimpleProtocol: true, // 👍 cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("gagal konek DB: %w", err)
	}
	log.Info().Msg("✅ DB connected.")
	return db, nil
}

func TunePool(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn().Err(err).Msg("pool tune err")
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries(db *gorm.DB) {
	go func() {
		time.Sleep(500 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		sqlDB, err := db.DB()
		if err != nil {
			log.Warn().Err(err).Msg("warm-up err")
			return
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Warn().Err(err).Msg("warm-up ping err")
		}
	}()
}

// Models dipakai AutoMigrate di main dan di setup test (sqlite).
func Models() []any {
	return []any{
		&userModel.UserModel{},
		&userModel.OAuthAccountModel{},
		&authModel.RefreshTokenModel{},
		&authModel.TokenBlacklistModel{},
		&courseModel.CourseModel{},
		&enrollmentModel.EnrollmentModel{},
		&certModel.CertificateBatchModel{},
		&certModel.CertificateModel{},
		&paymentModel.PaymentModel{},
		&paymentModel.PaymentGatewayEventModel{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info().Msg("✅ Migrasi selesai.")
	return nil
}
