// Package retention trims conversation logs back to the configured
// retention cap on a cron schedule. Trimmed messages are archived, not
// deleted; conversations themselves are never removed.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"

	"recall/pkg/config"
	"recall/pkg/logger"
	"recall/pkg/store"
)

// Runner drives scheduled trim runs over the store.
type Runner struct {
	st   *store.Store
	cfg  config.RetentionConfig
	keep int
}

// NewRunner builds a runner keeping at most keep messages per
// conversation.
func NewRunner(st *store.Store, cfg config.RetentionConfig, keep int) *Runner {
	return &Runner{st: st, cfg: cfg, keep: keep}
}

// Start launches the scheduler when retention is enabled. The returned
// cancel func stops it.
func (r *Runner) Start(ctx context.Context) (context.CancelFunc, error) {
	if !r.cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := r.cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid retention cron expression: %s", r.cfg.Cron)
	}

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		g := gronx.New()
		tick := time.NewTicker(time.Minute)
		defer tick.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-tick.C:
				due, err := g.IsDue(cronExpr, time.Now())
				if err != nil || !due {
					continue
				}
				if err := r.RunOnce(runCtx); err != nil {
					logger.Error("retention_run_failed", zap.Error(err))
				}
			}
		}
	}()
	logger.Info("retention_started", zap.String("cron", cronExpr), zap.Int("keep", r.keep))
	return cancel, nil
}

// RunOnce trims every conversation to the retention cap. Exposed for
// admin triggers and tests.
func (r *Runner) RunOnce(ctx context.Context) error {
	convs, err := r.st.ListConversations(ctx)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}

	batch := r.cfg.BatchSize
	if batch <= 0 {
		batch = 200
	}
	archived, processed := 0, 0
	for _, c := range convs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if r.cfg.DryRun {
			logger.Info("retention_dry_run", zap.String("conv", c.ID))
			continue
		}
		n, err := r.st.TrimConversation(ctx, c.ID, r.keep)
		if err != nil {
			logger.Warn("retention_trim_failed", zap.String("conv", c.ID), zap.Error(err))
			continue
		}
		archived += n
		processed++
		if processed%batch == 0 && r.cfg.BatchSleepMs > 0 {
			time.Sleep(time.Duration(r.cfg.BatchSleepMs) * time.Millisecond)
		}
	}
	logger.Info("retention_run_done", zap.Int("conversations", processed), zap.Int("archived", archived))
	return nil
}
