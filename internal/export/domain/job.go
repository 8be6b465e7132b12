package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Format is the artifact output format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

func (f Format) IsValid() bool {
	switch f {
	case FormatCSV, FormatJSON, FormatTable:
		return true
	}
	return false
}

// Status is the job state machine: pending -> processing -> completed|failed.
// Transitions are one-directional and terminal states are immutable; a failed
// job is resubmitted as a new job, never retried in place.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// MaxRangeDays bounds the inclusive export window.
const MaxRangeDays = 365

// Job is one bounded export execution against the audit event log.
type Job struct {
	ID    snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID snowflake.ID `gorm:"not null;index" json:"organization_id"`
	// ScheduleID back-references the schedule this job was materialized from.
	// Nil for on-demand jobs.
	ScheduleID *snowflake.ID `gorm:"index" json:"schedule_id,omitempty"`

	Format      Format                      `gorm:"type:text;not null" json:"format"`
	DateFrom    time.Time                   `gorm:"not null" json:"date_from"`
	DateTo      time.Time                   `gorm:"not null" json:"date_to"`
	EventTypes  datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"event_types,omitempty"`
	EntityTypes datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"entity_types,omitempty"`

	Status         Status     `gorm:"type:text;not null;default:'pending';index" json:"status"`
	TotalRecords   *int64     `gorm:"" json:"total_records,omitempty"`
	ArtifactSize   *int64     `gorm:"column:artifact_size_bytes" json:"artifact_size_bytes,omitempty"`
	ArtifactHandle *string    `gorm:"type:text" json:"-"`
	ErrorMessage   *string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CompletedAt    *time.Time `gorm:"" json:"completed_at,omitempty"`
}

func (Job) TableName() string { return "export_jobs" }

// NewJob validates and constructs a pending job. Validation happens here, at
// construction time: a job that fails these checks is never persisted.
func NewJob(id snowflake.ID, orgID snowflake.ID, p NewJobParams, now time.Time) (*Job, error) {
	if !p.Format.IsValid() {
		return nil, ErrInvalidFormat
	}
	if p.DateTo.Before(p.DateFrom) {
		return nil, ErrInvalidDateRange
	}
	if p.DateTo.Sub(p.DateFrom) > MaxRangeDays*24*time.Hour {
		return nil, ErrDateRangeTooLarge
	}

	return &Job{
		ID:          id,
		OrgID:       orgID,
		ScheduleID:  p.ScheduleID,
		Format:      p.Format,
		DateFrom:    p.DateFrom.UTC(),
		DateTo:      p.DateTo.UTC(),
		EventTypes:  p.EventTypes,
		EntityTypes: p.EntityTypes,
		Status:      StatusPending,
		CreatedAt:   now.UTC(),
	}, nil
}

type NewJobParams struct {
	Format      Format
	DateFrom    time.Time
	DateTo      time.Time
	EventTypes  []string
	EntityTypes []string
	ScheduleID  *snowflake.ID
}
