package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/launchsim/internal/dynamo"
)

// Loop schedules tick callbacks, one per interval, on the calling goroutine.
type Loop struct {
	Interval time.Duration
}

func NewLoop(cfg Config) *Loop {
	return &Loop{Interval: cfg.Interval()}
}

// Run calls tick until it returns false or ctx is done. An unpaced loop
// (zero interval) runs ticks back to back.
func (l *Loop) Run(ctx context.Context, tick func() bool) error {
	if l.Interval <= 0 {
		for {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, ctx.Err())
			default:
			}
			if !tick() {
				return nil
			}
		}
	}

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, ctx.Err())
		case <-ticker.C:
			if !tick() {
				return nil
			}
		}
	}
}
