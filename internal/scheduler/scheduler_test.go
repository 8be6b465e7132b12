package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/railzwaylabs/audittrail/internal/config"
	exportdomain "github.com/railzwaylabs/audittrail/internal/export/domain"
	exportrepo "github.com/railzwaylabs/audittrail/internal/export/repository"
	"github.com/railzwaylabs/audittrail/internal/observability"
	scheduledomain "github.com/railzwaylabs/audittrail/internal/schedule/domain"
	schedulerepo "github.com/railzwaylabs/audittrail/internal/schedule/repository"
	"github.com/railzwaylabs/audittrail/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeRunner struct {
	mu       sync.Mutex
	executed []*exportdomain.Job
}

func (r *fakeRunner) Execute(_ context.Context, job *exportdomain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executed = append(r.executed, job)
	return nil
}

func (r *fakeRunner) jobs() []*exportdomain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*exportdomain.Job(nil), r.executed...)
}

type tickFixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	runner *fakeRunner
	s      *Scheduler
}

func newTickFixture(t *testing.T) *tickFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&scheduledomain.Schedule{}, &exportdomain.Job{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{}
	cfg.Scheduler.Workers = 2
	cfg.Scheduler.Timezone = "UTC"

	log := zap.NewNop()
	runner := &fakeRunner{}
	return &tickFixture{
		db:     db,
		node:   node,
		runner: runner,
		s: &Scheduler{
			cfg:       cfg,
			db:        db,
			log:       log,
			genID:     node,
			metrics:   observability.NewMetrics(),
			schedules: schedulerepo.Provide(),
			exports:   exportrepo.Provide(),
			runner:    runner,
			pool:      worker.NewPool(cfg, log),
			loc:       time.UTC,
		},
	}
}

func (f *tickFixture) seedWeekly(t *testing.T, nextRunAt time.Time) *scheduledomain.Schedule {
	t.Helper()
	dow := 1
	s := &scheduledomain.Schedule{
		ID:           f.node.Generate(),
		OrgID:        f.node.Generate(),
		Name:         "weekly export",
		Frequency:    scheduledomain.FrequencyWeekly,
		DayOfWeek:    &dow,
		HourOfDay:    9,
		Format:       exportdomain.FormatCSV,
		LookbackDays: 7,
		IsActive:     true,
		NextRunAt:    nextRunAt,
	}
	require.NoError(t, f.db.Create(s).Error)
	return s
}

func TestTick_MaterializesDueSchedule(t *testing.T) {
	f := newTickFixture(t)

	// Monday 09:00 trigger; the tick lands just past it.
	trigger := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	sched := f.seedWeekly(t, trigger)

	now := trigger.Add(30 * time.Second)
	f.s.Tick(context.Background(), now)
	f.s.pool.Wait()

	jobs := f.runner.jobs()
	require.Len(t, jobs, 1)
	job := jobs[0]
	require.NotNil(t, job.ScheduleID)
	assert.Equal(t, sched.ID, *job.ScheduleID)
	assert.Equal(t, sched.Format, job.Format)
	// The window is [now - lookback, now], not trigger-aligned.
	assert.Equal(t, now.AddDate(0, 0, -7), job.DateFrom)
	assert.Equal(t, now, job.DateTo)

	var stored scheduledomain.Schedule
	require.NoError(t, f.db.First(&stored, "id = ?", sched.ID).Error)
	assert.Equal(t, time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC), stored.NextRunAt.UTC())
	require.NotNil(t, stored.LastRunAt)
	assert.Equal(t, now, stored.LastRunAt.UTC())

	var persisted exportdomain.Job
	require.NoError(t, f.db.First(&persisted, "id = ?", job.ID).Error)
	assert.Equal(t, sched.OrgID, persisted.OrgID)
}

func TestTick_SameOccurrenceClaimedOnce(t *testing.T) {
	f := newTickFixture(t)

	trigger := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	f.seedWeekly(t, trigger)

	now := trigger.Add(30 * time.Second)
	f.s.Tick(context.Background(), now)
	f.s.pool.Wait()
	require.Len(t, f.runner.jobs(), 1)

	// A second tick at the same instant finds nothing due anymore.
	f.s.Tick(context.Background(), now)
	f.s.pool.Wait()
	assert.Len(t, f.runner.jobs(), 1)
}

func TestTick_SkipsFutureAndInactiveSchedules(t *testing.T) {
	f := newTickFixture(t)

	f.seedWeekly(t, time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC))

	inactive := f.seedWeekly(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC))
	require.NoError(t, f.db.Model(&scheduledomain.Schedule{}).
		Where("id = ?", inactive.ID).Update("is_active", false).Error)

	f.s.Tick(context.Background(), time.Date(2024, 3, 11, 9, 0, 30, 0, time.UTC))
	f.s.pool.Wait()
	assert.Empty(t, f.runner.jobs())
}

func TestTick_FailureIsolatedPerSchedule(t *testing.T) {
	f := newTickFixture(t)

	trigger := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	// A schedule whose stored format is garbage fails materialization.
	broken := f.seedWeekly(t, trigger)
	require.NoError(t, f.db.Model(&scheduledomain.Schedule{}).
		Where("id = ?", broken.ID).Update("format", "bogus").Error)

	healthy := f.seedWeekly(t, trigger)

	f.s.Tick(context.Background(), trigger.Add(30*time.Second))
	f.s.pool.Wait()

	jobs := f.runner.jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, healthy.ID, *jobs[0].ScheduleID)

	// The broken schedule's occurrence still counts as attempted.
	var stored scheduledomain.Schedule
	require.NoError(t, f.db.First(&stored, "id = ?", broken.ID).Error)
	assert.Equal(t, time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC), stored.NextRunAt.UTC())
}
