package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	artifactdomain "github.com/railzwaylabs/audittrail/internal/artifact/domain"
	"github.com/railzwaylabs/audittrail/internal/clock"
	eventdomain "github.com/railzwaylabs/audittrail/internal/eventlog/domain"
	"github.com/railzwaylabs/audittrail/internal/export/domain"
	"github.com/railzwaylabs/audittrail/internal/export/formatter"
	notifydomain "github.com/railzwaylabs/audittrail/internal/notify/domain"
	"github.com/railzwaylabs/audittrail/internal/observability"
	scheduledomain "github.com/railzwaylabs/audittrail/internal/schedule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RunnerParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Metrics   *observability.Metrics
	Repo      domain.Repository
	Events    eventdomain.Query
	Store     artifactdomain.Store
	Notifier  notifydomain.Notifier
	Schedules scheduledomain.Repository
}

// Runner executes one export job end to end. Failures are captured on the
// job record, never propagated to the caller: one job's failure must not
// abort another due schedule's materialization in the same tick.
type Runner struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	metrics   *observability.Metrics
	repo      domain.Repository
	events    eventdomain.Query
	store     artifactdomain.Store
	notifier  notifydomain.Notifier
	schedules scheduledomain.Repository
}

func NewRunner(p RunnerParams) *Runner {
	return &Runner{
		db:        p.DB,
		log:       p.Log.Named("export.runner"),
		clock:     p.Clock,
		metrics:   p.Metrics,
		repo:      p.Repo,
		events:    p.Events,
		store:     p.Store,
		notifier:  p.Notifier,
		schedules: p.Schedules,
	}
}

// Execute runs a pending job. The pending -> processing transition happens
// before any I/O, so a crash mid-run shows up as stuck-in-processing rather
// than as a job that looks untouched.
func (r *Runner) Execute(ctx context.Context, job *domain.Job) error {
	claimed, err := r.repo.MarkProcessing(ctx, r.db, job.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return domain.ErrJobNotPending
	}
	job.Status = domain.StatusProcessing
	r.metrics.JobsStarted.WithLabelValues(string(job.Format)).Inc()

	started := r.clock.Now(ctx)
	rows, size, handle, runErr := r.run(ctx, job)
	finished := r.clock.Now(ctx)
	r.metrics.JobDuration.Observe(finished.Sub(started).Seconds())

	if runErr != nil {
		msg := runErr.Error()
		if err := r.repo.Fail(ctx, r.db, job.ID, msg, finished); err != nil {
			r.log.Error("failed to record job failure", zap.Error(err), zap.String("job_id", job.ID.String()))
			return err
		}
		job.Status = domain.StatusFailed
		job.ErrorMessage = &msg
		job.CompletedAt = &finished
		r.metrics.JobsCompleted.WithLabelValues(string(job.Format), string(domain.StatusFailed)).Inc()
		r.log.Warn("export job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("error", msg),
		)
		r.notify(ctx, job)
		return nil
	}

	handleStr := string(handle)
	if err := r.repo.Complete(ctx, r.db, job.ID, rows, size, handleStr, finished); err != nil {
		// The artifact exists but the job record could not be finalized; drop
		// the artifact so nothing dangles without a referencing job.
		_ = r.store.Delete(ctx, handle)
		r.log.Error("failed to record job completion", zap.Error(err), zap.String("job_id", job.ID.String()))
		return err
	}
	job.Status = domain.StatusCompleted
	job.TotalRecords = &rows
	job.ArtifactSize = &size
	job.ArtifactHandle = &handleStr
	job.CompletedAt = &finished
	r.metrics.JobsCompleted.WithLabelValues(string(job.Format), string(domain.StatusCompleted)).Inc()
	r.metrics.JobRecords.Observe(float64(rows))
	r.log.Info("export job completed",
		zap.String("job_id", job.ID.String()),
		zap.Int64("records", rows),
		zap.Int64("size_bytes", size),
	)
	r.notify(ctx, job)
	return nil
}

// run streams records through the formatter into the artifact store via a
// pipe, so no format ever requires the full result set in memory. On any
// error the store put aborts and leaves nothing behind.
func (r *Runner) run(ctx context.Context, job *domain.Job) (int64, int64, artifactdomain.Handle, error) {
	fmtr, contentType, ext, err := formatter.ForFormat(job.Format, formatter.Metadata{
		JobID:       job.ID.String(),
		OrgID:       job.OrgID.String(),
		Format:      job.Format,
		DateFrom:    job.DateFrom,
		DateTo:      job.DateTo,
		EventTypes:  job.EventTypes,
		EntityTypes: job.EntityTypes,
		GeneratedAt: r.clock.Now(ctx),
	})
	if err != nil {
		return 0, 0, "", err
	}

	it, err := r.events.Query(ctx, eventdomain.QueryRequest{
		OrgID:       job.OrgID,
		From:        job.DateFrom,
		To:          job.DateTo,
		EventTypes:  toEventTypes(job.EventTypes),
		EntityTypes: toEntityTypes(job.EntityTypes),
	})
	if err != nil {
		return 0, 0, "", err
	}

	pr, pw := io.Pipe()
	var rows int64
	done := make(chan error, 1)
	go func() {
		genErr := func() error {
			if err := fmtr.Begin(pw); err != nil {
				return err
			}
			for {
				rec, err := it.Next(ctx)
				if errors.Is(err, eventdomain.ErrIteratorDone) {
					break
				}
				if err != nil {
					return fmt.Errorf("query event log: %w", err)
				}
				if err := fmtr.Write(rec); err != nil {
					return err
				}
			}
			n, err := fmtr.End()
			rows = n
			return err
		}()
		if genErr != nil {
			pw.CloseWithError(genErr)
		} else {
			pw.Close()
		}
		done <- genErr
	}()

	handle, size, putErr := r.store.Put(ctx, artifactdomain.PutInput{
		OrgID:       job.OrgID,
		JobID:       job.ID,
		ContentType: contentType,
		Ext:         ext,
		Body:        pr,
	})
	if putErr != nil {
		// Unblock the generator if it is still writing.
		pr.CloseWithError(putErr)
	}
	genErr := <-done

	if genErr != nil {
		if putErr == nil {
			// The store accepted a truncated artifact before the generator
			// error surfaced; discard it.
			_ = r.store.Delete(ctx, handle)
		}
		return 0, 0, "", genErr
	}
	if putErr != nil {
		return 0, 0, "", fmt.Errorf("store artifact: %w", putErr)
	}
	return rows, size, handle, nil
}

// notify dispatches a completion notice for schedule-materialized jobs with
// notify targets. Delivery failure is logged and counted; it never alters
// the job's terminal status.
func (r *Runner) notify(ctx context.Context, job *domain.Job) {
	if job.ScheduleID == nil {
		return
	}
	sched, err := r.schedules.FindByID(ctx, r.db, job.OrgID, *job.ScheduleID)
	if err != nil {
		r.log.Error("failed to load schedule for notification", zap.Error(err), zap.String("job_id", job.ID.String()))
		return
	}
	if sched == nil || len(sched.NotifyTargets) == 0 {
		return
	}

	var subject, body string
	switch job.Status {
	case domain.StatusCompleted:
		subject = fmt.Sprintf("Audit export %s completed", job.ID.String())
		body = fmt.Sprintf("Scheduled audit export %q finished with %d records.", sched.Name, derefInt64(job.TotalRecords))
		if job.ArtifactHandle != nil {
			url, expiresAt, err := r.store.ResolveDownloadURL(ctx, artifactdomain.Handle(*job.ArtifactHandle))
			if err == nil {
				body += fmt.Sprintf("\nDownload: %s (available until %s)", url, expiresAt.UTC().Format("2006-01-02 15:04 MST"))
			}
		}
	case domain.StatusFailed:
		subject = fmt.Sprintf("Audit export %s failed", job.ID.String())
		body = fmt.Sprintf("Scheduled audit export %q failed: %s", sched.Name, derefStr(job.ErrorMessage))
	default:
		return
	}

	r.metrics.NotifyDispatched.Inc()
	if err := r.notifier.Notify(ctx, sched.NotifyTargets, subject, body); err != nil {
		r.metrics.NotifyFailures.Inc()
		r.log.Error("notification dispatch failed", zap.Error(err), zap.String("job_id", job.ID.String()))
	}
}

func toEventTypes(values []string) []eventdomain.EventType {
	out := make([]eventdomain.EventType, 0, len(values))
	for _, v := range values {
		out = append(out, eventdomain.EventType(v))
	}
	return out
}

func toEntityTypes(values []string) []eventdomain.EntityType {
	out := make([]eventdomain.EntityType, 0, len(values))
	for _, v := range values {
		out = append(out, eventdomain.EntityType(v))
	}
	return out
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefStr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
