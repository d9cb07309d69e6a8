package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"kursusku_backend/internals/features/users/auth/service"
)

// DefaultCleanupCron: tiap hari jam 03:00.
const DefaultCleanupCron = "0 3 * * *"

type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

var _ Cleaner = (*service.AuthService)(nil)

func StartBlacklistCleanupScheduler(cl Cleaner, spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultCleanupCron
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() { RunCleanup(cl, time.Minute) }); err != nil {
		return nil, err
	}
	c.Start()
	log.Info().Str("cron", spec).Msg("⏰ Token cleanup scheduler aktif")
	return c, nil
}

func RunCleanup(cl Cleaner, timeout time.Duration) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info().Msg("[CLEANUP] Menjalankan pembersihan token_blacklist...")
	n, err := cl.CleanupExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("[CLEANUP ERROR] Gagal hapus token")
		return n
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("[CLEANUP] token kadaluarsa dihapus")
	} else {
		log.Debug().Msg("[CLEANUP] Tidak ada token yang memenuhi syarat dihapus")
	}
	return n
}
