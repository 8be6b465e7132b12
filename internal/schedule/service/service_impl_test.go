package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/railzwaylabs/audittrail/internal/config"
	exportdomain "github.com/railzwaylabs/audittrail/internal/export/domain"
	"github.com/railzwaylabs/audittrail/internal/orgcontext"
	"github.com/railzwaylabs/audittrail/internal/schedule/domain"
	"github.com/railzwaylabs/audittrail/internal/schedule/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now(context.Context) time.Time { return c.at }

func newService(t *testing.T, at time.Time) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Schedule{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{}
	cfg.Scheduler.Timezone = "UTC"

	svc, err := New(Params{
		Cfg:   cfg,
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fixedClock{at: at},
		Repo:  repository.Provide(),
	})
	require.NoError(t, err)
	return svc, db
}

func orgCtx(t *testing.T) context.Context {
	t.Helper()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	return orgcontext.WithOrgID(context.Background(), node.Generate())
}

func intPtr(v int) *int { return &v }

func TestServiceCreate(t *testing.T) {
	// Wednesday 2024-03-06 10:00 UTC.
	svc, _ := newService(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC))
	ctx := orgCtx(t)

	resp, err := svc.Create(ctx, domain.CreateRequest{
		Name:          "weekly compliance export",
		Frequency:     domain.FrequencyWeekly,
		DayOfWeek:     intPtr(1),
		TimeOfDay:     "09:00",
		Format:        exportdomain.FormatCSV,
		LookbackDays:  7,
		NotifyTargets: []string{"compliance@example.com"},
	})
	require.NoError(t, err)

	assert.True(t, resp.IsActive)
	assert.Equal(t, "09:00", resp.TimeOfDay)
	// First occurrence is the following Monday.
	assert.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), resp.NextRunAt)
	assert.Nil(t, resp.LastRunAt)
}

func TestServiceCreate_Validation(t *testing.T) {
	svc, _ := newService(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC))
	ctx := orgCtx(t)

	base := domain.CreateRequest{
		Name:         "s",
		Frequency:    domain.FrequencyWeekly,
		DayOfWeek:    intPtr(1),
		TimeOfDay:    "09:00",
		Format:       exportdomain.FormatCSV,
		LookbackDays: 7,
	}

	t.Run("missing org scope", func(t *testing.T) {
		_, err := svc.Create(context.Background(), base)
		assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
	})

	t.Run("malformed time of day", func(t *testing.T) {
		req := base
		req.TimeOfDay = "9am"
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidTimeOfDay)
	})

	t.Run("weekly without anchor day", func(t *testing.T) {
		req := base
		req.DayOfWeek = nil
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, domain.ErrInvalidDayOfWeek)
	})
}

func TestServiceUpdate_RecomputesNextRun(t *testing.T) {
	svc, _ := newService(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC))
	ctx := orgCtx(t)

	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:         "weekly export",
		Frequency:    domain.FrequencyWeekly,
		DayOfWeek:    intPtr(1),
		TimeOfDay:    "09:00",
		Format:       exportdomain.FormatCSV,
		LookbackDays: 7,
	})
	require.NoError(t, err)

	// Moving the anchor to Friday moves the trigger to 2024-03-08.
	updated, err := svc.Update(ctx, domain.UpdateRequest{
		ID:        created.ID,
		DayOfWeek: intPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC), updated.NextRunAt)
}

func TestServiceUpdate_FrequencyChangeRequiresNewAnchor(t *testing.T) {
	svc, _ := newService(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC))
	ctx := orgCtx(t)

	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:         "weekly export",
		Frequency:    domain.FrequencyWeekly,
		DayOfWeek:    intPtr(1),
		TimeOfDay:    "09:00",
		Format:       exportdomain.FormatCSV,
		LookbackDays: 7,
	})
	require.NoError(t, err)

	monthly := domain.FrequencyMonthly
	// Switching to monthly without a day_of_month is rejected; the stale
	// day_of_week must not be reinterpreted.
	_, err = svc.Update(ctx, domain.UpdateRequest{
		ID:        created.ID,
		Frequency: &monthly,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDayOfMonth)

	updated, err := svc.Update(ctx, domain.UpdateRequest{
		ID:         created.ID,
		Frequency:  &monthly,
		DayOfMonth: intPtr(15),
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), updated.NextRunAt)
}

func TestServiceUpdate_Deactivate(t *testing.T) {
	svc, _ := newService(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC))
	ctx := orgCtx(t)

	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:         "weekly export",
		Frequency:    domain.FrequencyWeekly,
		DayOfWeek:    intPtr(1),
		TimeOfDay:    "09:00",
		Format:       exportdomain.FormatCSV,
		LookbackDays: 7,
	})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	active := true
	updated, err = svc.Update(ctx, domain.UpdateRequest{ID: created.ID, IsActive: &active})
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	// Reactivation recomputes the trigger rather than firing missed occurrences.
	assert.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), updated.NextRunAt)
}

func TestServiceGet_ScopedToOrganization(t *testing.T) {
	svc, _ := newService(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC))

	created, err := svc.Create(orgCtx(t), domain.CreateRequest{
		Name:         "weekly export",
		Frequency:    domain.FrequencyWeekly,
		DayOfWeek:    intPtr(1),
		TimeOfDay:    "09:00",
		Format:       exportdomain.FormatCSV,
		LookbackDays: 7,
	})
	require.NoError(t, err)

	// A different organization cannot see the schedule.
	_, err = svc.Get(orgCtx(t), created.ID)
	assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
}

func TestServiceDelete(t *testing.T) {
	svc, _ := newService(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC))
	ctx := orgCtx(t)

	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:         "weekly export",
		Frequency:    domain.FrequencyWeekly,
		DayOfWeek:    intPtr(1),
		TimeOfDay:    "09:00",
		Format:       exportdomain.FormatCSV,
		LookbackDays: 7,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrScheduleNotFound)
}
