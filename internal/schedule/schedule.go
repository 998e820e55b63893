// Package schedule provides small helpers for running periodic background work.
package schedule

import (
	"context"
	"time"
)

// Every runs execute once per interval until ctx is canceled.
// It blocks; callers run it in a goroutine.
func Every(ctx context.Context, interval time.Duration, execute func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			execute(ctx)
		}
	}
}
