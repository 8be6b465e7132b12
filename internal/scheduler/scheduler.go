package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/audittrail/internal/clock"
	"github.com/railzwaylabs/audittrail/internal/config"
	exportdomain "github.com/railzwaylabs/audittrail/internal/export/domain"
	exportservice "github.com/railzwaylabs/audittrail/internal/export/service"
	"github.com/railzwaylabs/audittrail/internal/observability"
	scheduledomain "github.com/railzwaylabs/audittrail/internal/schedule/domain"
	"github.com/railzwaylabs/audittrail/internal/worker"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type jobRunner interface {
	Execute(ctx context.Context, job *exportdomain.Job) error
}

type Params struct {
	fx.In

	Cfg       config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Metrics   *observability.Metrics
	Schedules scheduledomain.Repository
	Exports   exportdomain.Repository
	Runner    *exportservice.Runner
	Pool      *worker.Pool
}

// Scheduler evaluates due schedules on a fixed interval and materializes one
// export job per due occurrence. Several instances may run concurrently; the
// repository's conditional claim update guarantees at-most-one job per
// occurrence.
type Scheduler struct {
	cfg       config.Config
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	metrics   *observability.Metrics
	schedules scheduledomain.Repository
	exports   exportdomain.Repository
	runner    jobRunner
	pool      *worker.Pool
	loc       *time.Location
}

func New(p Params) (*Scheduler, error) {
	loc, err := time.LoadLocation(p.Cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}
	return &Scheduler{
		cfg:       p.Cfg,
		db:        p.DB,
		log:       p.Log.Named("scheduler"),
		genID:     p.GenID,
		clock:     p.Clock,
		metrics:   p.Metrics,
		schedules: p.Schedules,
		exports:   p.Exports,
		runner:    p.Runner,
		pool:      p.Pool,
		loc:       loc,
	}, nil
}

// RunForever ticks until the context is cancelled, then drains in-flight jobs.
func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.cfg.Scheduler.TickInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	s.log.Info("scheduler started", zap.Duration("tick_interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping, draining workers")
			s.pool.Wait()
			return
		case <-ticker.C:
			s.Tick(ctx, s.clock.Now(ctx))
		}
	}
}

// Tick claims every due schedule and hands the materialized jobs to the
// worker pool. Failures are isolated per schedule: one schedule failing to
// materialize or run never blocks the others in the same tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	started := time.Now()
	defer func() {
		s.metrics.TickDuration.Observe(time.Since(started).Seconds())
	}()

	due, err := s.schedules.FindDue(ctx, s.db, now)
	if err != nil {
		s.log.Error("failed to query due schedules", zap.Error(err))
		return
	}

	for i := range due {
		s.processSchedule(ctx, &due[i], now)
	}
}

func (s *Scheduler) processSchedule(ctx context.Context, sched *scheduledomain.Schedule, now time.Time) {
	// Claim before materializing: advance the trigger with a conditional
	// update so a concurrent engine instance (or a deactivation racing this
	// tick) cannot produce a duplicate job for the same occurrence.
	nextRun := scheduledomain.NextRunAfter(sched, now, sched.Location(s.loc))
	claimed, err := s.schedules.Claim(ctx, s.db, sched, now.UTC(), nextRun)
	if err != nil {
		s.metrics.ScheduleFailures.Inc()
		s.log.Error("failed to claim schedule", zap.Error(err), zap.String("schedule_id", sched.ID.String()))
		return
	}
	if !claimed {
		return
	}
	s.metrics.SchedulesClaimed.Inc()

	scheduleID := sched.ID
	job, err := exportdomain.NewJob(s.genID.Generate(), sched.OrgID, exportdomain.NewJobParams{
		Format:      sched.Format,
		DateFrom:    now.AddDate(0, 0, -sched.LookbackDays),
		DateTo:      now,
		EventTypes:  sched.EventTypes,
		EntityTypes: sched.EntityTypes,
		ScheduleID:  &scheduleID,
	}, now)
	if err != nil {
		// The occurrence counts as attempted; the trigger has already
		// advanced and missed occurrences are never backfilled.
		s.metrics.ScheduleFailures.Inc()
		s.log.Error("failed to materialize job for schedule", zap.Error(err), zap.String("schedule_id", sched.ID.String()))
		return
	}

	if err := s.exports.Create(ctx, s.db, job); err != nil {
		s.metrics.ScheduleFailures.Inc()
		s.log.Error("failed to persist materialized job", zap.Error(err), zap.String("schedule_id", sched.ID.String()))
		return
	}

	s.log.Info("schedule materialized job",
		zap.String("schedule_id", sched.ID.String()),
		zap.String("job_id", job.ID.String()),
		zap.Time("next_run_at", nextRun),
	)

	if err := s.pool.Submit(ctx, func(ctx context.Context) {
		if err := s.runner.Execute(ctx, job); err != nil {
			s.metrics.ScheduleFailures.Inc()
			s.log.Error("scheduled job execution error", zap.Error(err), zap.String("job_id", job.ID.String()))
		}
	}); err != nil {
		s.log.Error("failed to dispatch scheduled job", zap.Error(err), zap.String("job_id", job.ID.String()))
	}
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
)
