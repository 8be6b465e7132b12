package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/audittrail/internal/clock"
	"github.com/railzwaylabs/audittrail/internal/config"
	"github.com/railzwaylabs/audittrail/internal/orgcontext"
	"github.com/railzwaylabs/audittrail/internal/schedule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	loc   *time.Location
}

func New(p Params) (domain.Service, error) {
	loc, err := time.LoadLocation(p.Cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("schedule.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		loc:   loc,
	}, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	hour, minute, err := parseTimeOfDay(req.TimeOfDay)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now(ctx)
	sched := &domain.Schedule{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Frequency:     req.Frequency,
		DayOfWeek:     req.DayOfWeek,
		DayOfMonth:    req.DayOfMonth,
		HourOfDay:     hour,
		Minute:        minute,
		Timezone:      req.Timezone,
		Format:        req.Format,
		EventTypes:    datatypes.NewJSONSlice(req.EventTypes),
		EntityTypes:   datatypes.NewJSONSlice(req.EntityTypes),
		LookbackDays:  req.LookbackDays,
		NotifyTargets: datatypes.NewJSONSlice(req.NotifyTargets),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	sched.NextRunAt = domain.NextRun(sched, now, sched.Location(s.loc))

	if err := s.repo.Create(ctx, s.db, sched); err != nil {
		return nil, err
	}

	s.log.Info("schedule created",
		zap.String("schedule_id", sched.ID.String()),
		zap.String("frequency", string(sched.Frequency)),
		zap.Time("next_run_at", sched.NextRunAt),
	)
	resp := toResponse(sched)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) (domain.ListResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidOrganization
	}

	items, err := s.repo.List(ctx, s.db, orgID)
	if err != nil {
		return domain.ListResponse{}, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return domain.ListResponse{Schedules: resp}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	sched, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(sched)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	sched, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		sched.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		sched.Description = req.Description
	}
	if req.Frequency != nil {
		sched.Frequency = *req.Frequency
		// A frequency change invalidates the old anchor day.
		sched.DayOfWeek = nil
		sched.DayOfMonth = nil
	}
	if req.DayOfWeek != nil {
		sched.DayOfWeek = req.DayOfWeek
	}
	if req.DayOfMonth != nil {
		sched.DayOfMonth = req.DayOfMonth
	}
	if req.TimeOfDay != nil {
		hour, minute, err := parseTimeOfDay(*req.TimeOfDay)
		if err != nil {
			return nil, err
		}
		sched.HourOfDay = hour
		sched.Minute = minute
	}
	if req.Timezone != nil {
		sched.Timezone = req.Timezone
	}
	if req.Format != nil {
		sched.Format = *req.Format
	}
	if req.EventTypes != nil {
		sched.EventTypes = datatypes.NewJSONSlice(req.EventTypes)
	}
	if req.EntityTypes != nil {
		sched.EntityTypes = datatypes.NewJSONSlice(req.EntityTypes)
	}
	if req.LookbackDays != nil {
		sched.LookbackDays = *req.LookbackDays
	}
	if req.NotifyTargets != nil {
		sched.NotifyTargets = datatypes.NewJSONSlice(req.NotifyTargets)
	}
	if req.IsActive != nil {
		sched.IsActive = *req.IsActive
	}

	if err := sched.Validate(); err != nil {
		return nil, err
	}

	// Any edit recomputes the trigger so next_run_at is never stale with
	// respect to the recurrence fields.
	now := s.clock.Now(ctx)
	sched.NextRunAt = domain.NextRun(sched, now, sched.Location(s.loc))
	sched.UpdatedAt = now

	if err := s.repo.Update(ctx, s.db, sched); err != nil {
		return nil, err
	}

	s.log.Info("schedule updated",
		zap.String("schedule_id", sched.ID.String()),
		zap.Bool("is_active", sched.IsActive),
		zap.Time("next_run_at", sched.NextRunAt),
	)
	resp := toResponse(sched)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	sched, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, sched.OrgID, sched.ID)
}

func (s *Service) find(ctx context.Context, id string) (*domain.Schedule, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	schedID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, domain.ErrScheduleNotFound
	}
	sched, err := s.repo.FindByID(ctx, s.db, orgID, schedID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, domain.ErrScheduleNotFound
	}
	return sched, nil
}

func parseTimeOfDay(v string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, 0, domain.ErrInvalidTimeOfDay
	}
	return t.Hour(), t.Minute(), nil
}

func toResponse(s *domain.Schedule) domain.Response {
	return domain.Response{
		ID:             s.ID.String(),
		OrganizationID: s.OrgID.String(),
		Name:           s.Name,
		Description:    s.Description,
		Frequency:      s.Frequency,
		DayOfWeek:      s.DayOfWeek,
		DayOfMonth:     s.DayOfMonth,
		TimeOfDay:      fmt.Sprintf("%02d:%02d", s.HourOfDay, s.Minute),
		Timezone:       s.Timezone,
		Format:         s.Format,
		EventTypes:     s.EventTypes,
		EntityTypes:    s.EntityTypes,
		LookbackDays:   s.LookbackDays,
		NotifyTargets:  s.NotifyTargets,
		IsActive:       s.IsActive,
		LastRunAt:      s.LastRunAt,
		NextRunAt:      s.NextRunAt,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
