package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/audittrail/internal/config"
	"github.com/railzwaylabs/audittrail/internal/eventlog/domain"
	"gorm.io/gorm"
)

const defaultBatchSize = 1000

type query struct {
	db    *gorm.DB
	batch int
}

func Provide(db *gorm.DB, cfg config.Config) domain.Query {
	batch := cfg.Export.QueryBatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &query{db: db, batch: batch}
}

func (q *query) scoped(ctx context.Context, req domain.QueryRequest) *gorm.DB {
	stmt := q.db.WithContext(ctx).
		Model(&domain.Record{}).
		Where("org_id = ?", req.OrgID).
		Where("occurred_at >= ? AND occurred_at <= ?", req.From, req.To)

	if len(req.EventTypes) > 0 {
		stmt = stmt.Where("event_type IN ?", req.EventTypes)
	}
	if len(req.EntityTypes) > 0 {
		stmt = stmt.Where("entity_type IN ?", req.EntityTypes)
	}
	return stmt
}

func (q *query) Query(ctx context.Context, req domain.QueryRequest) (domain.RecordIterator, error) {
	return &iterator{q: q, req: req}, nil
}

func (q *query) Count(ctx context.Context, req domain.QueryRequest) (int64, error) {
	var n int64
	if err := q.scoped(ctx, req).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// iterator pages through the result set with a keyset cursor on
// (occurred_at, id) so arbitrarily large ranges never load fully.
type iterator struct {
	q   *query
	req domain.QueryRequest

	buf      []domain.Record
	pos      int
	lastTime time.Time
	lastID   snowflake.ID
	started  bool
	done     bool
}

func (it *iterator) Next(ctx context.Context) (*domain.Record, error) {
	if it.pos >= len(it.buf) {
		if it.done {
			return nil, domain.ErrIteratorDone
		}
		if err := it.fill(ctx); err != nil {
			return nil, err
		}
		if len(it.buf) == 0 {
			return nil, domain.ErrIteratorDone
		}
	}
	rec := &it.buf[it.pos]
	it.pos++
	it.lastTime = rec.OccurredAt
	it.lastID = rec.ID
	return rec, nil
}

func (it *iterator) fill(ctx context.Context) error {
	stmt := it.q.scoped(ctx, it.req)
	if it.started {
		stmt = stmt.Where("(occurred_at > ? OR (occurred_at = ? AND id > ?))", it.lastTime, it.lastTime, it.lastID)
	}

	var page []domain.Record
	err := stmt.Order("occurred_at ASC, id ASC").Limit(it.q.batch).Find(&page).Error
	if err != nil {
		return err
	}

	it.started = true
	it.buf = page
	it.pos = 0
	if len(page) < it.q.batch {
		it.done = true
	}
	return nil
}
