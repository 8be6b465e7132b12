package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status Status
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, job *Job) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Job, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]Job, error)
	// MarkProcessing transitions pending -> processing. Returns false when the
	// job was not pending, which keeps the state machine one-directional even
	// if two runners pick up the same job.
	MarkProcessing(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	// Complete records the terminal success state with artifact bookkeeping.
	Complete(ctx context.Context, db *gorm.DB, id snowflake.ID, totalRecords, sizeBytes int64, handle string, at time.Time) error
	// Fail records the terminal failure state with a human-readable message.
	Fail(ctx context.Context, db *gorm.DB, id snowflake.ID, message string, at time.Time) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}
