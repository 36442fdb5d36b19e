package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"raisegate/pkg/requestcontext"
)

// Runner drives the sweeper on a fixed cadence until the context is
// cancelled. It never stops on a failed run; the next tick tries again.
type Runner struct {
	sweeper  *Sweeper
	interval time.Duration
	logger   *slog.Logger
}

func NewRunner(sweeper *Sweeper, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{sweeper: sweeper, interval: interval, logger: logger}
}

// Start blocks until ctx is cancelled. Each tick pins the sweep time so the
// whole run observes one consistent "now".
func (r *Runner) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "sweep runner started", "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "sweep runner stopped")
			return ctx.Err()
		case now := <-ticker.C:
			runCtx := requestcontext.WithTime(ctx, now.UTC())
			if _, err := r.sweeper.Run(runCtx); err != nil {
				if errors.Is(err, ErrSweepInProgress) {
					r.logger.InfoContext(ctx, "sweep skipped, another run in progress")
					continue
				}
				r.logger.ErrorContext(ctx, "scheduled sweep failed", "error", err)
			}
		}
	}
}
