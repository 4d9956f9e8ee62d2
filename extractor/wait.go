package extractor

import (
	"context"
	"time"
)

// waitFor polls ready every interval until it returns true, the timeout
// elapses or ctx is done. ready is first called after one interval.
func waitFor(ctx context.Context, timeout, interval time.Duration, ready func() bool) bool {
	if timeout <= 0 {
		return ready()
	}
	if interval <= 0 || interval > timeout {
		interval = timeout
	}
	deadline := time.Now().Add(timeout)
	t := time.NewTimer(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
		if ready() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		t.Reset(interval)
	}
}
