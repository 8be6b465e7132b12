package formatter

import (
	"encoding/json"
	"io"
	"time"

	eventdomain "github.com/railzwaylabs/audittrail/internal/eventlog/domain"
)

type jsonRecord struct {
	ID             string          `json:"id"`
	OccurredAt     string          `json:"occurred_at"`
	OrganizationID string          `json:"organization_id"`
	EventType      string          `json:"event_type"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	ActorID        string          `json:"actor_id,omitempty"`
	Action         string          `json:"action"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// jsonFormatter emits a JSON array incrementally, one element per record, so
// the artifact is valid JSON once End runs without ever holding the full set.
type jsonFormatter struct {
	out  io.Writer
	rows int64
}

func (f *jsonFormatter) Begin(w io.Writer) error {
	f.out = w
	_, err := io.WriteString(w, "[")
	return err
}

func (f *jsonFormatter) Write(rec *eventdomain.Record) error {
	data, err := json.Marshal(jsonRecord{
		ID:             rec.ID.String(),
		OccurredAt:     rec.OccurredAt.UTC().Format(time.RFC3339),
		OrganizationID: rec.OrgID.String(),
		EventType:      string(rec.EventType),
		EntityType:     string(rec.EntityType),
		EntityID:       rec.EntityID,
		ActorID:        strPtr(rec.ActorID),
		Action:         rec.Action,
		Metadata:       json.RawMessage(rec.Metadata),
	})
	if err != nil {
		return err
	}

	if f.rows > 0 {
		if _, err := io.WriteString(f.out, ","); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(f.out, "\n  "); err != nil {
		return err
	}
	if _, err := f.out.Write(data); err != nil {
		return err
	}
	f.rows++
	return nil
}

func (f *jsonFormatter) End() (int64, error) {
	suffix := "]"
	if f.rows > 0 {
		suffix = "\n]"
	}
	if _, err := io.WriteString(f.out, suffix); err != nil {
		return 0, err
	}
	return f.rows, nil
}
