package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactExpired  = errors.New("artifact expired")
)

// Handle is an opaque reference to a stored artifact. Callers persist it on
// the export job and pass it back verbatim.
type Handle string

type PutInput struct {
	OrgID       snowflake.ID
	JobID       snowflake.ID
	ContentType string
	// Ext is the file extension for the object name, without the dot.
	Ext string
	// Body is consumed fully; a read error aborts the put and leaves nothing
	// behind in the store.
	Body io.Reader
}

// Store persists export artifacts and enforces their retention window.
type Store interface {
	// Put writes the artifact and returns its handle and size in bytes.
	Put(ctx context.Context, in PutInput) (Handle, int64, error)
	// Open streams a stored artifact. Returns ErrArtifactExpired once the
	// retention window has passed.
	Open(ctx context.Context, h Handle) (io.ReadCloser, string, error)
	// ResolveDownloadURL returns a caller-facing URL for the artifact and the
	// instant at which it stops being downloadable.
	ResolveDownloadURL(ctx context.Context, h Handle) (string, time.Time, error)
	Delete(ctx context.Context, h Handle) error
}
