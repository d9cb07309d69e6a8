package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"kursusku_backend/internals/configs"
	database "kursusku_backend/internals/databases"
	payScheduler "kursusku_backend/internals/features/finance/payments/scheduler"
	paymentSvc "kursusku_backend/internals/features/finance/payments/service"
	authScheduler "kursusku_backend/internals/features/users/auth/scheduler"
	"kursusku_backend/internals/helpers/cache"
	"kursusku_backend/internals/helpers/logger"
	"kursusku_backend/internals/helpers/mailer"
	"kursusku_backend/internals/helpers/media"
	"kursusku_backend/internals/helpers/metrics"
	middlewares "kursusku_backend/internals/middlewares"
	reqLogger "kursusku_backend/internals/middlewares/logger"
	routes "kursusku_backend/internals/route"
	"kursusku_backend/internals/seeds"
)

func main() {
	cfg := configs.LoadEnv()
	logger.Init("kursusku-backend", cfg.IsDevelopment())

	// 🔌 DB connect + pool + warm-up
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ gagal konek database")
	}
	database.TunePool(db)
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("❌ auto migrate gagal")
	}
	database.WarmUpQueries(db)

	// `go run . seed` → isi data demo lalu keluar
	if len(os.Args) > 1 && os.Args[1] == "seed" {
		if err := seeds.RunAllSeeds(db, "internals/seeds"); err != nil {
			log.Fatal().Err(err).Msg("❌ seed gagal")
		}
		return
	}

	deps := routes.Deps{
		Mailer:  mailer.New(cfg.SendGridAPIKey, cfg.MailFrom),
		Gateway: paymentSvc.NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransUseProd, cfg.GatewayTimeout),
		Uploader: media.NewCloudUploader(media.Options{
			CloudName: cfg.MediaCloudName,
			APIKey:    cfg.MediaAPIKey,
			APISecret: cfg.MediaAPISecret,
			Timeout:   cfg.GatewayTimeout,
		}),
	}
	// NewRedis → nil saat dimatikan; jangan sampai jadi interface non-nil
	redisCache := cache.NewRedis(context.Background(), cfg.RedisURL, "kursusku:")
	if redisCache != nil {
		deps.Cache = redisCache
		middlewares.UseLimiterStorage(redisCache.Storage("limiter"))
	}

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            middlewares.ErrorHandler(cfg.IsDevelopment()),
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"}, // sesuaikan dengan CIDR Cloudflare jika perlu
		ReadTimeout:             15 * time.Second,
		WriteTimeout:            30 * time.Second,
		IdleTimeout:             90 * time.Second,
	})

	app.Use(middlewares.RecoveryMiddleware(cfg.IsDevelopment()))
	app.Use(middlewares.RequestID())
	app.Use(reqLogger.LoggerMiddleware())
	app.Use(metrics.Middleware())
	app.Use(middlewares.CorsMiddleware(cfg.CORSOrigins))
	// ⚙️ middleware performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching
	app.Use(middlewares.GlobalRateLimiter())

	svc := routes.BuildServices(cfg, db, deps)
	routes.BaseRoutes(app, cfg, db)
	routes.SetupRoutes(app, cfg, db, svc)

	// ⏱ scheduler setelah DB siap
	reconcileCron, err := payScheduler.StartReconcileScheduler(svc.Payments, cfg.ReconcileCron, cfg.GatewayTimeout*4)
	if err != nil {
		log.Fatal().Err(err).Str("spec", cfg.ReconcileCron).Msg("❌ RECONCILE_CRON tidak valid")
	}
	cleanupCron, err := authScheduler.StartBlacklistCleanupScheduler(svc.Auth, cfg.CleanupCron)
	if err != nil {
		log.Fatal().Err(err).Str("spec", cfg.CleanupCron).Msg("❌ TOKEN_CLEANUP_CRON tidak valid")
	}

	// Start server non-blocking
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("✅ Listening")
		if err := app.Listen(fmt.Sprintf("0.0.0.0:%s", cfg.Port)); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown + tutup pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("🛑 shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	// tunggu job cron yang sedang jalan
	for _, c := range []*cron.Cron{reconcileCron, cleanupCron} {
		if c != nil {
			<-c.Stop().Done()
		}
	}

	if redisCache != nil {
		_ = redisCache.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
