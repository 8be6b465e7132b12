package domain

import "context"

// Notifier delivers job completion notices. Dispatch is fire-and-forget from
// the runner's perspective: a delivery error is logged and counted but never
// changes the job's terminal status.
type Notifier interface {
	Notify(ctx context.Context, targets []string, subject, body string) error
}
