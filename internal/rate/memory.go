package rate

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el equivalente in-process de RedisLimiter.
type MemoryLimiter struct {
	c      *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(2*window, 10*window),
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

// PerSecond arma un MemoryLimiter de n hits por segundo.
func PerSecond(n int) *MemoryLimiter {
	return NewMemoryLimiter(n, time.Second)
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now()
	k := fmt.Sprintf("%s:%d", key, now.Truncate(l.window).UnixNano())

	// Add falla si el key ya existe: en ese caso solo incrementamos.
	_ = l.c.Add(k, int64(0), 2*l.window)
	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		return Result{}, fmt.Errorf("rate: memory: %w", err)
	}

	remaining := l.max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= l.max,
		Remaining:   remaining,
		CurrentHits: hits,
	}
	if !res.Allowed {
		res.RetryAfter = windowRemaining(now, l.window)
	}
	return res, nil
}
