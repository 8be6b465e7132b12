package worker

import (
	"context"
	"sync"

	"github.com/railzwaylabs/audittrail/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Pool bounds how many export runs execute at once. A burst of
// simultaneously-due schedules or concurrent on-demand requests queues here
// instead of fanning out unbounded queries against the event log.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
	log *zap.Logger
}

func NewPool(cfg config.Config, log *zap.Logger) *Pool {
	size := cfg.Scheduler.Workers
	if size <= 0 {
		size = 1
	}
	return &Pool{
		sem: make(chan struct{}, size),
		log: log.Named("worker.pool"),
	}
}

// Submit blocks until a worker slot frees up, then runs fn on its own
// goroutine. The context only gates the wait for a slot; fn receives it as-is.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context)) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.sem <- struct{}{}:
	}

	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()
		fn(ctx)
	}()
	return nil
}

// Wait blocks until all submitted work has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

var Module = fx.Module("worker",
	fx.Provide(NewPool),
)
