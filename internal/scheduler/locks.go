package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	obsmetrics "github.com/smallbiznis/etabridge/internal/observability/metrics"
)

const companyLockPrefix = "eta:scheduler"

func companyLockKey(job, company string) string {
	return fmt.Sprintf("%s:%s:%s", companyLockPrefix, job, strings.ToLower(strings.TrimSpace(company)))
}

// withCompanyLock runs fn while holding the company's lock for job so that
// replicas never submit the same company twice. It reports false when another
// replica holds the lock. Without Redis fn runs unguarded.
func (s *Scheduler) withCompanyLock(ctx context.Context, job, company string, fn func(context.Context) error) (bool, error) {
	schedMetrics := obsmetrics.Scheduler()
	lockStart := time.Now()
	acquired := false

	ran, err := s.locker.WithLock(ctx, companyLockKey(job, company), s.cfg.LockTTL, func(ctx context.Context) error {
		acquired = true
		schedMetrics.ObserveLockWait(job, time.Since(lockStart))
		return fn(ctx)
	})
	if !acquired {
		schedMetrics.ObserveLockWait(job, time.Since(lockStart))
	}
	if err != nil {
		return ran, err
	}
	if !ran {
		schedMetrics.IncBatchDeferred(job, obsmetrics.SchedulerBatchDeferredReasonLocked)
	}
	return ran, nil
}
