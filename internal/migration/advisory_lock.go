package migration

import (
	"context"
	"database/sql"
	"fmt"
)

// advisoryLockKey is an arbitrary but stable key identifying the schema
// migration critical section for this application.
const advisoryLockKey = 714201882

func acquireAdvisoryLock(ctx context.Context, db *sql.DB) (func(context.Context) error, error) {
	if _, err := db.ExecContext(ctx, "SELECT pg_advisory_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire migration lock: %w", err)
	}

	unlock := func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockKey)
		return err
	}
	return unlock, nil
}
