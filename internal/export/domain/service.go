package domain

import (
	"context"
	"io"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	Download(ctx context.Context, id string) (*DownloadResult, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	Format      Format   `json:"format"`
	DateFrom    string   `json:"date_from"`
	DateTo      string   `json:"date_to"`
	EventTypes  []string `json:"event_types,omitempty"`
	EntityTypes []string `json:"entity_types,omitempty"`
}

type ListRequest struct {
	Status string
}

type ListResponse struct {
	Jobs []Response `json:"jobs"`
}

type Response struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	ScheduleID     *string    `json:"schedule_id,omitempty"`
	Format         Format     `json:"format"`
	DateFrom       time.Time  `json:"date_from"`
	DateTo         time.Time  `json:"date_to"`
	EventTypes     []string   `json:"event_types,omitempty"`
	EntityTypes    []string   `json:"entity_types,omitempty"`
	Status         Status     `json:"status"`
	TotalRecords   *int64     `json:"total_records,omitempty"`
	ArtifactSize   *int64     `json:"artifact_size_bytes,omitempty"`
	DownloadURL    *string    `json:"download_url,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// DownloadResult streams a completed artifact. Body is never a partial file:
// either the artifact completed and is within its retention window, or the
// download fails with ErrArtifactUnavailable.
type DownloadResult struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}
