package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/railzwaylabs/audittrail/internal/config"
	"github.com/railzwaylabs/audittrail/internal/eventlog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupQuery(t *testing.T, batchSize int) (domain.Query, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Record{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{}
	cfg.Export.QueryBatchSize = batchSize
	return Provide(db, cfg), db, node
}

func seedRecords(t *testing.T, db *gorm.DB, node *snowflake.Node, orgID snowflake.ID, n int, start time.Time) []snowflake.ID {
	t.Helper()
	ids := make([]snowflake.ID, 0, n)
	for i := 0; i < n; i++ {
		rec := &domain.Record{
			ID:         node.Generate(),
			OrgID:      orgID,
			EventType:  domain.EventTypeCreate,
			EntityType: domain.EntityTypeCourse,
			EntityID:   "c1",
			Action:     "course.created",
			OccurredAt: start.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(rec).Error)
		ids = append(ids, rec.ID)
	}
	return ids
}

func drain(t *testing.T, it domain.RecordIterator) []domain.Record {
	t.Helper()
	var out []domain.Record
	for {
		rec, err := it.Next(context.Background())
		if errors.Is(err, domain.ErrIteratorDone) {
			return out
		}
		require.NoError(t, err)
		out = append(out, *rec)
	}
}

func TestQueryIterator_PagesThroughBatches(t *testing.T) {
	q, db, node := setupQuery(t, 3)
	orgID := node.Generate()
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	// 7 records over a batch size of 3 forces three pages.
	ids := seedRecords(t, db, node, orgID, 7, start)

	it, err := q.Query(context.Background(), domain.QueryRequest{
		OrgID: orgID,
		From:  start,
		To:    start.Add(time.Hour),
	})
	require.NoError(t, err)

	got := drain(t, it)
	require.Len(t, got, 7)
	for i, rec := range got {
		assert.Equal(t, ids[i], rec.ID)
	}
	// Order is occurrence time ascending.
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].OccurredAt.Before(got[i-1].OccurredAt))
	}
}

func TestQueryIterator_InclusiveBounds(t *testing.T) {
	q, db, node := setupQuery(t, 100)
	orgID := node.Generate()
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	seedRecords(t, db, node, orgID, 5, start)

	// The range ends exactly on the third record's timestamp.
	it, err := q.Query(context.Background(), domain.QueryRequest{
		OrgID: orgID,
		From:  start,
		To:    start.Add(2 * time.Minute),
	})
	require.NoError(t, err)
	assert.Len(t, drain(t, it), 3)
}

func TestQueryIterator_Filters(t *testing.T) {
	q, db, node := setupQuery(t, 100)
	orgID := node.Generate()
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&domain.Record{
		ID: node.Generate(), OrgID: orgID,
		EventType: domain.EventTypeCreate, EntityType: domain.EntityTypeCourse,
		EntityID: "c1", Action: "course.created", OccurredAt: start,
	}).Error)
	require.NoError(t, db.Create(&domain.Record{
		ID: node.Generate(), OrgID: orgID,
		EventType: domain.EventTypeDelete, EntityType: domain.EntityTypeUser,
		EntityID: "u1", Action: "user.deleted", OccurredAt: start.Add(time.Minute),
	}).Error)
	// Another organization's record never leaks into the result.
	require.NoError(t, db.Create(&domain.Record{
		ID: node.Generate(), OrgID: node.Generate(),
		EventType: domain.EventTypeCreate, EntityType: domain.EntityTypeCourse,
		EntityID: "c9", Action: "course.created", OccurredAt: start,
	}).Error)

	req := domain.QueryRequest{
		OrgID:      orgID,
		From:       start,
		To:         start.Add(time.Hour),
		EventTypes: []domain.EventType{domain.EventTypeDelete},
	}
	it, err := q.Query(context.Background(), req)
	require.NoError(t, err)
	got := drain(t, it)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventTypeDelete, got[0].EventType)

	n, err := q.Count(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestQueryIterator_EmptyRange(t *testing.T) {
	q, _, node := setupQuery(t, 100)

	it, err := q.Query(context.Background(), domain.QueryRequest{
		OrgID: node.Generate(),
		From:  time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		To:    time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, drain(t, it))
}
