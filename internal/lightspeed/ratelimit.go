package lightspeed

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

const defaultPageDelay = 100 * time.Millisecond

// Pacer spaces consecutive page requests of one aggregation. The first Wait
// returns immediately; each later Wait blocks until the interval has passed
// or the context is canceled.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing one request per interval. A non-positive
// interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next request may be sent.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacer wait: %w", err)
	}
	return nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
