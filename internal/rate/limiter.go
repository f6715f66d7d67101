// Package rate limita el ritmo de requests salientes (fixed window).
package rate

import (
	"context"
	"time"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// minWait evita busy-loop si el backend reporta RetryAfter 0.
const minWait = 10 * time.Millisecond

// Wait bloquea hasta que l permita un hit para key o ctx se cancele.
// Un Limiter nil no limita.
func Wait(ctx context.Context, l Limiter, key string) error {
	if l == nil {
		return ctx.Err()
	}
	for {
		res, err := l.Allow(ctx, key)
		if err != nil {
			return err
		}
		if res.Allowed {
			return nil
		}
		wait := res.RetryAfter
		if wait < minWait {
			wait = minWait
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// windowRemaining calcula lo que falta para que cierre la ventana actual.
func windowRemaining(now time.Time, window time.Duration) time.Duration {
	return now.Truncate(window).Add(window).Sub(now)
}
