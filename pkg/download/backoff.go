package download

import (
	"context"
	"time"
)

const maxBackoff = 30 * time.Second

// sleepBackoff waits 2^attempt seconds (capped) plus a small linear jitter
// before the next retry. Returns false when the context was cancelled while
// waiting.
func sleepBackoff(ctx context.Context, attempt int) bool {
	delay := time.Duration(1<<uint(attempt)) * time.Second
	if delay > maxBackoff {
		delay = maxBackoff
	}
	delay += time.Duration(attempt) * 200 * time.Millisecond

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}
