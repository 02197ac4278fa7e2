package lightspeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/metrics"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// RetryPolicy bounds the attempts made for a single page request.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy returns three attempts with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     4 * time.Second,
		Multiplier:   2,
	}
}

func (p RetryPolicy) backoff(d time.Duration) time.Duration {
	m := p.Multiplier
	if m < 1 {
		m = 1
	}
	next := time.Duration(float64(d) * m)
	if p.MaxDelay > 0 && next > p.MaxDelay {
		next = p.MaxDelay
	}
	return next
}

// AttemptState is the state of one page request.
type AttemptState int

// Page request states: Idle -> Fetching -> Succeeded | RetryScheduled |
// Failed. RetryScheduled returns to Fetching after the backoff delay.
const (
	AttemptIdle AttemptState = iota
	AttemptFetching
	AttemptSucceeded
	AttemptRetryScheduled
	AttemptFailed
)

func (s AttemptState) String() string {
	switch s {
	case AttemptIdle:
		return "idle"
	case AttemptFetching:
		return "fetching"
	case AttemptSucceeded:
		return "succeeded"
	case AttemptRetryScheduled:
		return "retry_scheduled"
	case AttemptFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// next decides the state that follows attempt number attempt ending in err.
func (p RetryPolicy) next(attempt int, err error) AttemptState {
	switch {
	case err == nil:
		return AttemptSucceeded
	case !isTransient(err):
		return AttemptFailed
	case attempt >= p.MaxAttempts:
		return AttemptFailed
	default:
		return AttemptRetryScheduled
	}
}

// transientError marks a failure that may succeed when retried: a transport
// error, a 5xx or a 429.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// BreakerConfig configures a vendor circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive transient failures that
	// opens the breaker. Zero disables the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// Breaker guards one vendor host. Only transient failures count against it.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker
	name string
}

// NewBreaker creates a breaker. It returns nil when cfg disables breaking.
func NewBreaker(name string, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if cfg.FailureThreshold == 0 {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.VendorBreakerTransitionsTotal.WithLabelValues(name, to.String()).Inc()
			logger.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), name: name}
}

// State returns the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

var errBreakerOpen = errors.New("circuit breaker open")

// Execute runs fn through the breaker. An open breaker returns errBreakerOpen
// without running fn.
func (b *Breaker) Execute(fn func() error) error {
	if b == nil {
		return fn()
	}

	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", errBreakerOpen, b.name)
	}
	return err
}

// retrier runs page requests through the retry state machine and a breaker.
type retrier struct {
	policy     RetryPolicy
	breaker    *Breaker
	generation domain.Generation
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// do runs fn until it succeeds, fails permanently or the attempt budget is
// spent. Exhausted transient failures and an open breaker both surface as
// UpstreamUnavailableError.
func (r *retrier) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	delay := r.policy.InitialDelay

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.breaker.Execute(func() error { return fn(ctx) })
		if errors.Is(err, errBreakerOpen) {
			return &UpstreamUnavailableError{Op: op, Attempts: attempt - 1, Err: err}
		}

		state := r.policy.next(attempt, err)
		switch state {
		case AttemptSucceeded:
			return nil
		case AttemptFailed:
			if isTransient(err) {
				return &UpstreamUnavailableError{Op: op, Attempts: attempt, Err: errors.Unwrap(err)}
			}
			return err
		case AttemptIdle, AttemptFetching, AttemptRetryScheduled:
		}

		metrics.VendorRetriesTotal.WithLabelValues(string(r.generation)).Inc()
		r.logger.Debug("retrying page request",
			"op", op,
			"attempt", attempt,
			"state", state.String(),
			"delay", delay,
			"err", err,
		)

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
		delay = r.policy.backoff(delay)
	}
}
