package formatter

import (
	"io"
	"time"

	eventdomain "github.com/railzwaylabs/audittrail/internal/eventlog/domain"
	"github.com/railzwaylabs/audittrail/internal/export/domain"
)

// header is the fixed column set shared by the CSV and table formats.
var header = []string{
	"id",
	"occurred_at",
	"organization_id",
	"event_type",
	"entity_type",
	"entity_id",
	"actor_id",
	"action",
	"metadata",
}

// Metadata describes the job that produced the artifact. The table format
// renders it on a dedicated sheet.
type Metadata struct {
	JobID       string
	OrgID       string
	Format      domain.Format
	DateFrom    time.Time
	DateTo      time.Time
	EventTypes  []string
	EntityTypes []string
	GeneratedAt time.Time
}

// Formatter serializes records one at a time. Implementations may buffer per
// record but must never require the full result set in memory.
type Formatter interface {
	Begin(w io.Writer) error
	Write(rec *eventdomain.Record) error
	// End finalizes the artifact and returns the number of records written.
	End() (int64, error)
}

// ForFormat returns the formatter for a job format together with the
// artifact's content type and file extension.
func ForFormat(f domain.Format, meta Metadata) (Formatter, string, string, error) {
	switch f {
	case domain.FormatCSV:
		return &csvFormatter{}, ContentType(f), Ext(f), nil
	case domain.FormatJSON:
		return &jsonFormatter{}, ContentType(f), Ext(f), nil
	case domain.FormatTable:
		return newTableFormatter(meta), ContentType(f), Ext(f), nil
	default:
		return nil, "", "", domain.ErrInvalidFormat
	}
}

func ContentType(f domain.Format) string {
	switch f {
	case domain.FormatCSV:
		return "text/csv"
	case domain.FormatJSON:
		return "application/json"
	case domain.FormatTable:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

func Ext(f domain.Format) string {
	switch f {
	case domain.FormatCSV:
		return "csv"
	case domain.FormatJSON:
		return "json"
	case domain.FormatTable:
		return "xlsx"
	}
	return "bin"
}

func recordRow(rec *eventdomain.Record) []string {
	return []string{
		rec.ID.String(),
		rec.OccurredAt.UTC().Format(time.RFC3339),
		rec.OrgID.String(),
		string(rec.EventType),
		string(rec.EntityType),
		rec.EntityID,
		strPtr(rec.ActorID),
		rec.Action,
		string(rec.Metadata),
	}
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
