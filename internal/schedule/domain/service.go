package domain

import (
	"context"
	"time"

	exportdomain "github.com/railzwaylabs/audittrail/internal/export/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) (ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	Name          string              `json:"name"`
	Description   *string             `json:"description,omitempty"`
	Frequency     Frequency           `json:"frequency"`
	DayOfWeek     *int                `json:"day_of_week,omitempty"`
	DayOfMonth    *int                `json:"day_of_month,omitempty"`
	TimeOfDay     string              `json:"time_of_day"`
	Timezone      *string             `json:"timezone,omitempty"`
	Format        exportdomain.Format `json:"format"`
	EventTypes    []string            `json:"event_types,omitempty"`
	EntityTypes   []string            `json:"entity_types,omitempty"`
	LookbackDays  int                 `json:"lookback_days"`
	NotifyTargets []string            `json:"notify_targets,omitempty"`
}

// UpdateRequest patches any subset of schedule parameters. Every accepted
// update recomputes next_run_at from the current instant.
type UpdateRequest struct {
	ID            string               `json:"-"`
	Name          *string              `json:"name,omitempty"`
	Description   *string              `json:"description,omitempty"`
	Frequency     *Frequency           `json:"frequency,omitempty"`
	DayOfWeek     *int                 `json:"day_of_week,omitempty"`
	DayOfMonth    *int                 `json:"day_of_month,omitempty"`
	TimeOfDay     *string              `json:"time_of_day,omitempty"`
	Timezone      *string              `json:"timezone,omitempty"`
	Format        *exportdomain.Format `json:"format,omitempty"`
	EventTypes    []string             `json:"event_types,omitempty"`
	EntityTypes   []string             `json:"entity_types,omitempty"`
	LookbackDays  *int                 `json:"lookback_days,omitempty"`
	NotifyTargets []string             `json:"notify_targets,omitempty"`
	IsActive      *bool                `json:"is_active,omitempty"`
}

type ListResponse struct {
	Schedules []Response `json:"schedules"`
}

type Response struct {
	ID             string              `json:"id"`
	OrganizationID string              `json:"organization_id"`
	Name           string              `json:"name"`
	Description    *string             `json:"description,omitempty"`
	Frequency      Frequency           `json:"frequency"`
	DayOfWeek      *int                `json:"day_of_week,omitempty"`
	DayOfMonth     *int                `json:"day_of_month,omitempty"`
	TimeOfDay      string              `json:"time_of_day"`
	Timezone       *string             `json:"timezone,omitempty"`
	Format         exportdomain.Format `json:"format"`
	EventTypes     []string            `json:"event_types,omitempty"`
	EntityTypes    []string            `json:"entity_types,omitempty"`
	LookbackDays   int                 `json:"lookback_days"`
	NotifyTargets  []string            `json:"notify_targets,omitempty"`
	IsActive       bool                `json:"is_active"`
	LastRunAt      *time.Time          `json:"last_run_at,omitempty"`
	NextRunAt      time.Time           `json:"next_run_at"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
