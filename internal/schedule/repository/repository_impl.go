package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/audittrail/internal/schedule/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, s *domain.Schedule) error {
	return db.WithContext(ctx).Create(s).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Schedule, error) {
	var s domain.Schedule
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.Schedule, error) {
	var items []domain.Schedule
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, s *domain.Schedule) error {
	return db.WithContext(ctx).
		Model(&domain.Schedule{}).
		Where("org_id = ? AND id = ?", s.OrgID, s.ID).
		Select("*").
		Omit("id", "org_id", "created_at").
		Updates(s).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Schedule{}).Error
}

func (r *repo) FindDue(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Schedule, error) {
	var items []domain.Schedule
	err := db.WithContext(ctx).
		Where("is_active = ? AND next_run_at <= ?", true, now).
		Order("next_run_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Claim(ctx context.Context, db *gorm.DB, s *domain.Schedule, lastRun, nextRun time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE export_schedules
		 SET last_run_at = ?, next_run_at = ?, updated_at = ?
		 WHERE id = ? AND is_active = ? AND next_run_at = ?`,
		lastRun, nextRun, lastRun, s.ID, true, s.NextRunAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected != 1 {
		return false, nil
	}
	s.LastRunAt = &lastRun
	s.NextRunAt = nextRun
	return true, nil
}
