package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/config"
	connectordomain "github.com/smallbiznis/etabridge/internal/connector/domain"
	documentdomain "github.com/smallbiznis/etabridge/internal/document/domain"
	obsmetrics "github.com/smallbiznis/etabridge/internal/observability/metrics"
	"github.com/smallbiznis/etabridge/internal/ratelimit"
	recorddomain "github.com/smallbiznis/etabridge/internal/record/domain"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log        *zap.Logger
	Documents  documentdomain.Service
	Records    recorddomain.Service
	Connectors connectordomain.Service
	Settings   *config.SettingsHolder
	Locker     *ratelimit.Locker `optional:"true"`
	GenID      *snowflake.Node
	Clock      clock.Clock
	Config     Config `optional:"true"`
}

// Scheduler submits signed invoices and polls the authority for pending
// documents in the background.
type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	genID      *snowflake.Node
	clock      clock.Clock
	documents  documentdomain.Service
	records    recorddomain.Service
	connectors connectordomain.Service
	settings   *config.SettingsHolder
	locker     *ratelimit.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Documents == nil || p.Records == nil || p.Connectors == nil || p.Settings == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		genID:      p.GenID,
		clock:      p.Clock,
		documents:  p.Documents,
		records:    p.Records,
		connectors: p.Connectors,
		settings:   p.Settings,
		locker:     p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name, batchSize)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// a deadline is a soft timeout: the next tick picks up the rest
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	for _, j := range s.jobs() {
		if !s.isJobEnabled(j.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, j.Name, s.cfg.BatchSize, s.cfg.JobTimeout, j.Run))
	}

	return err
}

type job struct {
	Name string
	Run  func(context.Context) error
}

func (s *Scheduler) jobs() []job {
	return []job{
		{JobAutoSubmitSigned, s.AutoSubmitSignedJob},
		{JobAutoFetchStatus, s.AutoFetchStatusJob},
	}
}

// jobNames lists the jobs a pass will run.
func (s *Scheduler) jobNames() []string {
	var names []string
	for _, j := range s.jobs() {
		if s.isJobEnabled(j.Name) {
			names = append(names, j.Name)
		}
	}
	return names
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(strings.TrimSpace(enabled), jobName) {
			return true
		}
	}
	return false
}
