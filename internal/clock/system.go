package clock

import (
	"context"
	"time"
)

type SystemClock struct{}

func NewSystemClock() Clock {
	return SystemClock{}
}

func (SystemClock) Now(ctx context.Context) time.Time {
	return time.Now().UTC()
}
