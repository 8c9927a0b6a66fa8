package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/config"
)

func loopScheduler(t *testing.T) (*Scheduler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	return &Scheduler{
		log:   zap.New(core),
		clock: clock.NewFakeClock(time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)),
		cfg: Config{
			RunInterval: time.Hour,
			EnabledJobs: []string{"nothing_matches"},
		}.withDefaults(),
	}, logs
}

func TestRegisterLoopStartsAndStopsWithLifecycle(t *testing.T) {
	sched, logs := loopScheduler(t)
	lc := fxtest.NewLifecycle(t)

	RegisterLoop(lc, config.Config{Scheduler: config.SchedulerConfig{Enabled: true}}, sched)
	lc.RequireStart()
	lc.RequireStop()

	started := logs.FilterMessage("background submission started").All()
	if assert.Len(t, started, 1) {
		fields := started[0].ContextMap()
		assert.Equal(t, time.Hour, fields["interval"])
		assert.Equal(t, false, fields["distributed_lock"])
	}
	assert.Equal(t, 1, logs.FilterMessage("background submission stopped").Len())
}

func TestRegisterLoopDisabled(t *testing.T) {
	sched, logs := loopScheduler(t)
	lc := fxtest.NewLifecycle(t)

	RegisterLoop(lc, config.Config{}, sched)
	lc.RequireStart()
	lc.RequireStop()

	assert.Equal(t, 1, logs.FilterMessage("background submission disabled").Len())
	assert.Equal(t, 0, logs.FilterMessage("background submission started").Len())
}

func TestJobNamesHonorsFilter(t *testing.T) {
	s := &Scheduler{cfg: Config{EnabledJobs: []string{" AUTOFETCH_STATUS "}}}
	assert.Equal(t, []string{JobAutoFetchStatus}, s.jobNames())

	s.cfg.EnabledJobs = nil
	assert.Equal(t, []string{JobAutoSubmitSigned, JobAutoFetchStatus}, s.jobNames())
}
