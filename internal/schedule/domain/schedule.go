package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	exportdomain "github.com/railzwaylabs/audittrail/internal/export/domain"
	"gorm.io/datatypes"
)

var (
	ErrInvalidOrganization = errors.New("organization scope missing or invalid")
	ErrInvalidName         = errors.New("schedule name is required")
	ErrInvalidFrequency    = errors.New("unrecognized schedule frequency")
	ErrInvalidDayOfWeek    = errors.New("day_of_week must be 0-6 and is required for weekly schedules")
	ErrInvalidDayOfMonth   = errors.New("day_of_month must be 1-31 and is required for monthly schedules")
	ErrInvalidTimeOfDay    = errors.New("time_of_day must be a valid HH:MM wall-clock time")
	ErrInvalidLookback     = errors.New("lookback_days must be between 1 and 365")
	ErrInvalidTimezone     = errors.New("timezone must be a valid IANA zone name")
	ErrScheduleNotFound    = errors.New("export schedule not found")
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Schedule is a durable recurrence definition. Each due occurrence
// materializes one export job covering [now - lookback_days, now].
//
// next_run_at is mutated exclusively by the schedule engine (and recomputed
// on create/update); it is always consistent with the recurrence fields as of
// the last recomputation.
type Schedule struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description *string      `gorm:"type:text" json:"description,omitempty"`

	Frequency  Frequency `gorm:"type:text;not null" json:"frequency"`
	DayOfWeek  *int      `gorm:"" json:"day_of_week,omitempty"`
	DayOfMonth *int      `gorm:"" json:"day_of_month,omitempty"`
	HourOfDay  int       `gorm:"not null" json:"hour_of_day"`
	Minute     int       `gorm:"not null" json:"minute"`
	// Timezone optionally overrides the deployment-wide reference zone.
	Timezone *string `gorm:"type:text" json:"timezone,omitempty"`

	Format        exportdomain.Format         `gorm:"type:text;not null" json:"format"`
	EventTypes    datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"event_types,omitempty"`
	EntityTypes   datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"entity_types,omitempty"`
	LookbackDays  int                         `gorm:"not null" json:"lookback_days"`
	NotifyTargets datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"notify_targets,omitempty"`

	IsActive  bool       `gorm:"not null;default:true;index" json:"is_active"`
	LastRunAt *time.Time `gorm:"" json:"last_run_at,omitempty"`
	NextRunAt time.Time  `gorm:"not null;index" json:"next_run_at"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Schedule) TableName() string { return "export_schedules" }

// Validate rejects impossible recurrence definitions at creation/update time,
// before anything is persisted.
func (s *Schedule) Validate() error {
	if s.Name == "" {
		return ErrInvalidName
	}
	if !s.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	switch s.Frequency {
	case FrequencyWeekly:
		if s.DayOfWeek == nil || *s.DayOfWeek < 0 || *s.DayOfWeek > 6 {
			return ErrInvalidDayOfWeek
		}
	case FrequencyMonthly:
		if s.DayOfMonth == nil || *s.DayOfMonth < 1 || *s.DayOfMonth > 31 {
			return ErrInvalidDayOfMonth
		}
	}
	if s.HourOfDay < 0 || s.HourOfDay > 23 || s.Minute < 0 || s.Minute > 59 {
		return ErrInvalidTimeOfDay
	}
	if s.LookbackDays < 1 || s.LookbackDays > exportdomain.MaxRangeDays {
		return ErrInvalidLookback
	}
	if !s.Format.IsValid() {
		return exportdomain.ErrInvalidFormat
	}
	if s.Timezone != nil {
		if _, err := time.LoadLocation(*s.Timezone); err != nil {
			return ErrInvalidTimezone
		}
	}
	return nil
}

// Location resolves the zone the schedule's time-of-day is interpreted in,
// falling back to the deployment default.
func (s *Schedule) Location(fallback *time.Location) *time.Location {
	if s.Timezone == nil {
		return fallback
	}
	loc, err := time.LoadLocation(*s.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
