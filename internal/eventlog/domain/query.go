package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ErrIteratorDone signals that a RecordIterator is exhausted.
var ErrIteratorDone = errors.New("event log iterator done")

// QueryRequest bounds a query to one organization and an inclusive time range.
// Empty filter slices mean "no filter".
type QueryRequest struct {
	OrgID       snowflake.ID
	From        time.Time
	To          time.Time
	EventTypes  []EventType
	EntityTypes []EntityType
}

// RecordIterator is a lazy pull over a finite query result, ordered by
// occurrence time ascending. Re-running the same query yields the same
// logical set of records.
type RecordIterator interface {
	// Next returns the next record, or ErrIteratorDone once exhausted.
	Next(ctx context.Context) (*Record, error)
}

// Query is the read surface of the append-only event log.
type Query interface {
	Query(ctx context.Context, req QueryRequest) (RecordIterator, error)
	// Count returns the number of records the same request would iterate.
	Count(ctx context.Context, req QueryRequest) (int64, error)
}
