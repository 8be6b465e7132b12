package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	artifactdomain "github.com/railzwaylabs/audittrail/internal/artifact/domain"
	"github.com/railzwaylabs/audittrail/internal/clock"
	"github.com/railzwaylabs/audittrail/internal/export/domain"
	"github.com/railzwaylabs/audittrail/internal/export/formatter"
	"github.com/railzwaylabs/audittrail/internal/orgcontext"
	"github.com/railzwaylabs/audittrail/internal/worker"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   domain.Repository
	Store  artifactdomain.Store
	Pool   *worker.Pool
	Runner *Runner
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	store  artifactdomain.Store
	pool   *worker.Pool
	runner *Runner
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("export.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		store:  p.Store,
		pool:   p.Pool,
		runner: p.Runner,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	dateFrom, err := parseDate(req.DateFrom)
	if err != nil {
		return nil, domain.ErrInvalidDateRange
	}
	dateTo, err := parseDate(req.DateTo)
	if err != nil {
		return nil, domain.ErrInvalidDateRange
	}

	now := s.clock.Now(ctx)
	job, err := domain.NewJob(s.genID.Generate(), orgID, domain.NewJobParams{
		Format:      req.Format,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
		EventTypes:  req.EventTypes,
		EntityTypes: req.EntityTypes,
	}, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, s.db, job); err != nil {
		return nil, err
	}
	s.log.Info("export job created",
		zap.String("job_id", job.ID.String()),
		zap.String("format", string(job.Format)),
	)

	// Execution outlives the request; only the org scope carries over.
	runCtx := context.WithoutCancel(ctx)
	if err := s.pool.Submit(runCtx, func(ctx context.Context) {
		if err := s.runner.Execute(ctx, job); err != nil {
			s.log.Error("export job execution error", zap.Error(err), zap.String("job_id", job.ID.String()))
		}
	}); err != nil {
		s.log.Error("failed to dispatch export job", zap.Error(err), zap.String("job_id", job.ID.String()))
	}

	resp := s.toResponse(ctx, job)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListFilter{}
	if req.Status != "" {
		filter.Status = domain.Status(req.Status)
	}

	jobs, err := s.repo.List(ctx, s.db, orgID, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}

	resp := make([]domain.Response, 0, len(jobs))
	for i := range jobs {
		resp = append(resp, s.toResponse(ctx, &jobs[i]))
	}
	return domain.ListResponse{Jobs: resp}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, job)
	return &resp, nil
}

func (s *Service) Download(ctx context.Context, id string) (*domain.DownloadResult, error) {
	job, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.StatusCompleted || job.ArtifactHandle == nil {
		return nil, domain.ErrArtifactUnavailable
	}

	body, contentType, err := s.store.Open(ctx, artifactdomain.Handle(*job.ArtifactHandle))
	if err == artifactdomain.ErrArtifactExpired || err == artifactdomain.ErrArtifactNotFound {
		return nil, domain.ErrArtifactUnavailable
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("audit_export_%s_%s.%s",
		job.DateFrom.UTC().Format("2006-01-02"),
		job.DateTo.UTC().Format("2006-01-02"),
		formatter.Ext(job.Format),
	)
	return &domain.DownloadResult{
		Body:        body,
		ContentType: contentType,
		Filename:    filename,
	}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	job, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if job.ArtifactHandle != nil {
		if err := s.store.Delete(ctx, artifactdomain.Handle(*job.ArtifactHandle)); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, s.db, job.OrgID, job.ID)
}

func (s *Service) find(ctx context.Context, id string) (*domain.Job, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	jobID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, domain.ErrJobNotFound
	}
	job, err := s.repo.FindByID(ctx, s.db, orgID, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (s *Service) toResponse(ctx context.Context, job *domain.Job) domain.Response {
	resp := domain.Response{
		ID:             job.ID.String(),
		OrganizationID: job.OrgID.String(),
		Format:         job.Format,
		DateFrom:       job.DateFrom,
		DateTo:         job.DateTo,
		EventTypes:     job.EventTypes,
		EntityTypes:    job.EntityTypes,
		Status:         job.Status,
		TotalRecords:   job.TotalRecords,
		ArtifactSize:   job.ArtifactSize,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt,
		CompletedAt:    job.CompletedAt,
	}
	if job.ScheduleID != nil {
		sid := job.ScheduleID.String()
		resp.ScheduleID = &sid
	}
	if job.Status == domain.StatusCompleted && job.ArtifactHandle != nil {
		url, expiresAt, err := s.store.ResolveDownloadURL(ctx, artifactdomain.Handle(*job.ArtifactHandle))
		if err == nil {
			resp.DownloadURL = &url
			resp.ExpiresAt = &expiresAt
		}
	}
	return resp
}

// parseDate accepts a date or a full RFC3339 timestamp; bare dates are
// interpreted as midnight UTC.
func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
