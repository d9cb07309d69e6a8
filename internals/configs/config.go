package configs

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// Config dibangun sekali di main lalu di-inject ke service/route.
type Config struct {
	AppEnv string
	Port   string

	DatabaseURL string

	JWTSecret        string
	JWTRefreshSecret string

	MidtransServerKey string
	MidtransClientKey string
	MidtransUseProd   bool
	GatewayTimeout    time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	// kosong → callback OAuth membalas JSON
	OAuthSuccessRedirect string

	RedisURL string

	SendGridAPIKey string
	MailFrom       string

	MediaCloudName string
	MediaAPIKey    string
	MediaAPISecret string

	CORSOrigins   string
	ReconcileCron string
	CleanupCron   string
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() *Config {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Warn().Msg("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Info().Msg("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Info().Msg("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	cfg := FromEnv()

	for key, val := range map[string]string{
		"DATABASE_URL":        cfg.DatabaseURL,
		"JWT_SECRET":          cfg.JWTSecret,
		"JWT_REFRESH_SECRET":  cfg.JWTRefreshSecret,
		"MIDTRANS_SERVER_KEY": cfg.MidtransServerKey,
	} {
		if val == "" {
			log.Error().Str("key", key).Msg("❌ env belum diset")
		}
	}
	return cfg
}

// FromEnv membaca Config dari environment tanpa menyentuh file .env.
func FromEnv() *Config {
	return &Config{
		AppEnv:               GetEnv("APP_ENV", "development"),
		Port:                 GetEnv("PORT", "3000"),
		DatabaseURL:          GetEnv("DATABASE_URL"),
		JWTSecret:            GetEnv("JWT_SECRET"),
		JWTRefreshSecret:     GetEnv("JWT_REFRESH_SECRET"),
		MidtransServerKey:    GetEnv("MIDTRANS_SERVER_KEY"),
		MidtransClientKey:    GetEnv("MIDTRANS_CLIENT_KEY"),
		MidtransUseProd:      GetBool("MIDTRANS_USE_PROD", false),
		GatewayTimeout:       GetDuration("GATEWAY_TIMEOUT", 15*time.Second),
		GoogleClientID:       GetEnv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   GetEnv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:    GetEnv("GOOGLE_REDIRECT_URL"),
		OAuthSuccessRedirect: GetEnv("OAUTH_SUCCESS_REDIRECT"),
		RedisURL:             GetEnv("REDIS_URL"),
		SendGridAPIKey:       GetEnv("SENDGRID_API_KEY"),
		MailFrom:             GetEnv("MAIL_FROM", "no-reply@kursusku.id"),
		MediaCloudName:       GetEnv("MEDIA_CLOUD_NAME"),
		MediaAPIKey:          GetEnv("MEDIA_API_KEY"),
		MediaAPISecret:       GetEnv("MEDIA_API_SECRET"),
		CORSOrigins:          GetEnv("CORS_ORIGINS", "*"),
		ReconcileCron:        GetEnv("RECONCILE_CRON", "*/15 * * * *"),
		CleanupCron:          GetEnv("TOKEN_CLEANUP_CRON", "0 3 * * *"),
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

func GetBool(key string, def bool) bool {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetDuration menerima "15s" atau angka detik polos ("15").
func GetDuration(key string, def time.Duration) time.Duration {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger(level gormLogger.LogLevel) gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		log.Info().Msgf(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		log.Warn().Msgf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		log.Error().Msgf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	file := utils.FileWithLineNum()

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error && err != gormLogger.ErrRecordNotFound:
		log.Error().Err(err).Str("file", file).Dur("elapsed", elapsed).Int64("rows", rows).Msg(sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		log.Warn().Str("file", file).Dur("elapsed", elapsed).Int64("rows", rows).Msg("[SLOW SQL] " + sql)
	case l.LogLevel >= gormLogger.Info:
		log.Debug().Str("file", file).Dur("elapsed", elapsed).Int64("rows", rows).Msg(sql)
	}
}
