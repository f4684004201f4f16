package utils

import (
	"context"
	"time"
)

// StartBlacklistSweeper periodically drops expired entries from the in-memory token
// blacklist. Redis entries expire on their own TTL. It stops when ctx is done.
func StartBlacklistSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := sweepBlacklist(now); n > 0 {
					Sugar.Debugf("token blacklist sweep removed %d entries", n)
				}
			}
		}
	}()
}

func sweepBlacklist(now time.Time) int {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	removed := 0
	for token, expiresAt := range blacklist {
		if now.After(expiresAt) {
			delete(blacklist, token)
			removed++
		}
	}
	return removed
}
