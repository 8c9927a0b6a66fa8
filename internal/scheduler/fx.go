package scheduler

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/internal/config"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(RegisterLoop),
)

// RegisterLoop runs the background submission and status polling loop for
// the lifetime of the application. Stopping waits for the running pass to end.
func RegisterLoop(lc fx.Lifecycle, cfg config.Config, sched *Scheduler) {
	if !cfg.Scheduler.Enabled {
		sched.log.Info("background submission disabled")
		return
	}

	var (
		cancel context.CancelFunc
		done   = make(chan struct{})
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var loopCtx context.Context
			loopCtx, cancel = context.WithCancel(context.Background())
			sched.log.Info("background submission started",
				zap.Duration("interval", sched.cfg.RunInterval),
				zap.Int("batch_size", sched.cfg.BatchSize),
				zap.Strings("jobs", sched.jobNames()),
				zap.Bool("distributed_lock", sched.locker != nil),
			)
			go func() {
				defer close(done)
				sched.RunForever(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				sched.log.Info("background submission stopped")
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
