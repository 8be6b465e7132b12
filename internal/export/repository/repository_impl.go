package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/audittrail/internal/export/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, job *domain.Job) error {
	return db.WithContext(ctx).Create(job).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Job, error) {
	var job domain.Job
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&job).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter) ([]domain.Job, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("org_id = ?", orgID)

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var jobs []domain.Job
	if err := stmt.Order("created_at DESC, id DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repo) MarkProcessing(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE export_jobs SET status = ? WHERE id = ? AND status = ?`,
		domain.StatusProcessing, id, domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) Complete(ctx context.Context, db *gorm.DB, id snowflake.ID, totalRecords, sizeBytes int64, handle string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE export_jobs
		 SET status = ?, total_records = ?, artifact_size_bytes = ?, artifact_handle = ?, completed_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusCompleted, totalRecords, sizeBytes, handle, at, id, domain.StatusProcessing,
	).Error
}

func (r *repo) Fail(ctx context.Context, db *gorm.DB, id snowflake.ID, message string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE export_jobs
		 SET status = ?, error_message = ?, completed_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusFailed, message, at, id, domain.StatusProcessing,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Job{}).Error
}
