package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"kursusku_backend/internals/features/finance/payments/service"
)

const (
	staleAfter     = 30 * time.Minute
	reconcileBatch = 50
)

// Reconciler adalah bagian PaymentService yang dipakai job ini.
type Reconciler interface {
	ReconcileStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

var _ Reconciler = (*service.PaymentService)(nil)

// StartReconcileScheduler menjalankan verifikasi payment pending yang webhook-nya tidak kunjung datang.
// spec kosong → scheduler tidak dijalankan.
func StartReconcileScheduler(r Reconciler, spec string, timeout time.Duration) (*cron.Cron, error) {
	if spec == "" {
		log.Info().Msg("[RECONCILE] scheduler dinonaktifkan")
		return nil, nil
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() { RunReconcile(r, timeout) }); err != nil {
		return nil, err
	}
	c.Start()
	log.Info().Str("cron", spec).Msg("⏰ Payment reconcile scheduler aktif")
	return c, nil
}

// RunReconcile satu putaran (dipanggil cron, juga dari test).
func RunReconcile(r Reconciler, timeout time.Duration) int {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	changed, err := r.ReconcileStalePending(ctx, staleAfter, reconcileBatch)
	if err != nil {
		log.Error().Err(err).Msg("[RECONCILE] gagal")
		return 0
	}
	if changed > 0 {
		log.Info().Int("changed", changed).Msg("[RECONCILE] payment diperbarui")
	}
	return changed
}
