package app

import (
	"context"
	"log"
	"time"
)

// SessionSweeper is implemented by session stores that evict idle sessions.
type SessionSweeper interface {
	SweepIdle(ctx context.Context, cutoff time.Time) int
}

// RunSweeper evicts sessions idle for longer than ttl every interval until ctx is done.
func RunSweeper(ctx context.Context, sweeper SessionSweeper, ttl, interval time.Duration) error {
	if ttl <= 0 || interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if removed := sweeper.SweepIdle(ctx, now.Add(-ttl)); removed > 0 {
				log.Printf("evicted %d idle sessions", removed)
			}
		}
	}
}
