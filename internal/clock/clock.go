package clock

import (
	"context"
	"time"

	"go.uber.org/fx"
)

// Clock supplies the reference instant for schedule evaluation and job
// timestamps. Trigger arithmetic never reads the wall clock directly; it
// always receives an explicit instant so tests can evaluate schedules at
// arbitrary points in time.
type Clock interface {
	Now(ctx context.Context) time.Time
}

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
