package memory

import (
	"context"
	"sync"
	"time"

	"journal-insights/application/ports"
)

// SlidingWindowThrottle implements a per-user sliding window limit
type SlidingWindowThrottle struct {
	mu         sync.Mutex
	windows    map[string][]time.Time
	limit      int
	windowSize time.Duration
	now        func() time.Time
}

// NewSlidingWindowThrottle creates a new sliding window throttle
func NewSlidingWindowThrottle(limit int, windowSize time.Duration) *SlidingWindowThrottle {
	return &SlidingWindowThrottle{
		windows:    make(map[string][]time.Time),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

var _ ports.GenerationThrottle = (*SlidingWindowThrottle)(nil)

// Allow checks if a generation is allowed. When denied, the duration is
// the time until the oldest request leaves the window.
func (l *SlidingWindowThrottle) Allow(ctx context.Context, userID string) (bool, time.Duration, error) {
	if l.limit <= 0 {
		return true, 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.windowSize)

	// Remove old requests outside the window
	valid := l.windows[userID][:0]
	for _, reqTime := range l.windows[userID] {
		if reqTime.After(windowStart) {
			valid = append(valid, reqTime)
		}
	}

	if len(valid) >= l.limit {
		l.windows[userID] = valid
		return false, valid[0].Add(l.windowSize).Sub(now), nil
	}

	l.windows[userID] = append(valid, now)
	return true, 0, nil
}

// Purge drops users whose requests have all left the window and returns
// how many were dropped.
func (l *SlidingWindowThrottle) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	windowStart := l.now().Add(-l.windowSize)
	removed := 0
	for userID, times := range l.windows {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(l.windows, userID)
			removed++
		}
	}
	return removed
}

// RunJanitor purges idle users every interval until ctx is done.
func (l *SlidingWindowThrottle) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Purge()
		}
	}
}
