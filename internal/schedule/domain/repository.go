package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, s *Schedule) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Schedule, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]Schedule, error)
	Update(ctx context.Context, db *gorm.DB, s *Schedule) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error

	// FindDue returns active schedules across all organizations whose
	// next_run_at has passed.
	FindDue(ctx context.Context, db *gorm.DB, now time.Time) ([]Schedule, error)

	// Claim atomically advances a due schedule to its next occurrence. The
	// conditional update succeeds only while next_run_at still equals the
	// value read by FindDue and the schedule is still active, so concurrent
	// engine instances claim each occurrence at most once. Returns false when
	// another instance won or the schedule was deactivated in between.
	Claim(ctx context.Context, db *gorm.DB, s *Schedule, lastRun, nextRun time.Time) (bool, error)
}
