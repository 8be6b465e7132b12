package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventType classifies what happened. The set of known values is closed for
// filtering UIs, but unknown values pass through untouched so older readers
// keep working against newer writers.
type EventType string

const (
	EventTypeCreate EventType = "create"
	EventTypeUpdate EventType = "update"
	EventTypeDelete EventType = "delete"
	EventTypeAccess EventType = "access"
	EventTypeLogin  EventType = "login"
	EventTypeExport EventType = "export"
)

func (t EventType) IsKnown() bool {
	switch t {
	case EventTypeCreate, EventTypeUpdate, EventTypeDelete, EventTypeAccess, EventTypeLogin, EventTypeExport:
		return true
	}
	return false
}

// EntityType names the kind of resource an event touched. Open set, same
// passthrough policy as EventType.
type EntityType string

const (
	EntityTypeUser     EntityType = "user"
	EntityTypeCourse   EntityType = "course"
	EntityTypeContent  EntityType = "content"
	EntityTypeSchedule EntityType = "schedule"
	EntityTypeExport   EntityType = "export"
)

// Record is one append-only audit log entry.
type Record struct {
	ID         snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID   `gorm:"not null;index:idx_audit_records_org_time,priority:1" json:"organization_id"`
	EventType  EventType      `gorm:"type:text;not null;index" json:"event_type"`
	EntityType EntityType     `gorm:"type:text;not null;index" json:"entity_type"`
	EntityID   string         `gorm:"type:text;not null" json:"entity_id"`
	ActorID    *string        `gorm:"type:text" json:"actor_id,omitempty"`
	Action     string         `gorm:"type:text;not null" json:"action"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	OccurredAt time.Time      `gorm:"not null;index:idx_audit_records_org_time,priority:2" json:"occurred_at"`
}

func (Record) TableName() string { return "audit_records" }
