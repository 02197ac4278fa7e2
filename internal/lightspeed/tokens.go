package lightspeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/metrics"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

const (
	defaultRefreshBuffer  = 60 * time.Second
	defaultRefreshTimeout = 30 * time.Second
)

// TokenRefresher exchanges a refresh token for a new token. *OAuthClient
// satisfies it.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenResult, error)
}

// CredentialSaver persists credentials after a successful refresh.
type CredentialSaver interface {
	Save(ctx context.Context, creds domain.Credentials) error
}

// RefreshState is the refresh state of a TokenSource.
type RefreshState int

// Refresh states. A source moves Idle -> Refreshing -> Idle on success or
// Failed on error. A failed source can refresh again.
const (
	RefreshIdle RefreshState = iota
	RefreshRefreshing
	RefreshFailed
)

func (s RefreshState) String() string {
	switch s {
	case RefreshIdle:
		return "idle"
	case RefreshRefreshing:
		return "refreshing"
	case RefreshFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TokenSources hands out one TokenSource per X-Series credential set so that
// concurrent loads share tokens and refreshes.
type TokenSources struct {
	refresher TokenRefresher
	saver     CredentialSaver
	buffer    time.Duration
	logger    *slog.Logger
	nowFunc   func() time.Time

	mu      sync.Mutex
	sources map[string]*TokenSource
}

// TokenSourcesOption configures TokenSources.
type TokenSourcesOption func(*TokenSources)

// WithCredentialSaver persists refreshed credentials.
func WithCredentialSaver(s CredentialSaver) TokenSourcesOption {
	return func(r *TokenSources) {
		r.saver = s
	}
}

// WithRefreshBuffer sets how long before expiry a token is refreshed.
func WithRefreshBuffer(d time.Duration) TokenSourcesOption {
	return func(r *TokenSources) {
		r.buffer = d
	}
}

// WithTokenNowFunc overrides the time function for testing.
func WithTokenNowFunc(f func() time.Time) TokenSourcesOption {
	return func(r *TokenSources) {
		r.nowFunc = f
	}
}

// WithTokenLogger sets the logger.
func WithTokenLogger(l *slog.Logger) TokenSourcesOption {
	return func(r *TokenSources) {
		r.logger = l
	}
}

// NewTokenSources creates an empty registry.
func NewTokenSources(refresher TokenRefresher, opts ...TokenSourcesOption) *TokenSources {
	r := &TokenSources{
		refresher: refresher,
		buffer:    defaultRefreshBuffer,
		logger:    slog.Default(),
		nowFunc:   time.Now,
		sources:   make(map[string]*TokenSource),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// For returns the TokenSource for creds, creating it on first use. An
// existing source keeps its own, possibly refreshed, tokens.
func (r *TokenSources) For(creds domain.ModernCredentials) *TokenSource {
	key := creds.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if ts, ok := r.sources[key]; ok {
		return ts
	}
	ts := &TokenSource{key: key, reg: r, creds: creds}
	r.sources[key] = ts
	return ts
}

// Forget drops the source for creds so the next For starts from the caller's
// tokens. Used after a new login or credential change.
func (r *TokenSources) Forget(creds domain.ModernCredentials) {
	r.mu.Lock()
	delete(r.sources, creds.Key())
	r.mu.Unlock()
}

// registered reports whether ts is still the live source for its key. A
// forgotten source keeps working for its callers but no longer persists.
func (r *TokenSources) registered(ts *TokenSource) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sources[ts.key] == ts
}

// TokenSource supplies the access token for one X-Series credential set and
// refreshes it at most once at a time. A source created after Forget never
// joins a refresh started by the one it replaced.
type TokenSource struct {
	key string
	reg *TokenSources

	flight singleflight.Group

	mu    sync.RWMutex
	creds domain.ModernCredentials
	state RefreshState
}

// Credentials returns the current credentials.
func (ts *TokenSource) Credentials() domain.ModernCredentials {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.creds
}

// State returns the current refresh state.
func (ts *TokenSource) State() RefreshState {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.state
}

// Token returns a usable access token, refreshing first when the current one
// is expired or about to expire.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	c := ts.Credentials()
	if !c.Expired(ts.reg.nowFunc(), ts.reg.buffer) {
		return c.AccessToken, nil
	}
	return ts.refresh(ctx, c.AccessToken)
}

// Invalidate reports that stale was rejected by the vendor. If another caller
// already replaced it, the current token is returned without a refresh.
func (ts *TokenSource) Invalidate(ctx context.Context, stale string) (string, error) {
	c := ts.Credentials()
	if c.AccessToken != stale {
		return c.AccessToken, nil
	}
	return ts.refresh(ctx, stale)
}

func (ts *TokenSource) refresh(ctx context.Context, stale string) (string, error) {
	ch := ts.flight.DoChan("refresh", func() (any, error) {
		cur := ts.Credentials()
		if cur.AccessToken != stale {
			return cur.AccessToken, nil
		}

		ts.setState(RefreshRefreshing)

		// The refresh outlives any single waiter.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultRefreshTimeout)
		defer cancel()

		res, err := ts.reg.refresher.Refresh(rctx, cur.RefreshToken)
		if err != nil {
			ts.setState(RefreshFailed)
			metrics.TokenRefreshesTotal.WithLabelValues("failure").Inc()
			ts.reg.logger.Warn("token refresh failed", "store", cur.StoreDomain, "err", err)
			return nil, err
		}

		next := cur.WithToken(res)
		ts.mu.Lock()
		ts.creds = next
		ts.state = RefreshIdle
		ts.mu.Unlock()

		metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
		ts.reg.logger.Info("token refreshed", "store", next.StoreDomain, "expires_at", next.ExpiresAt)

		if ts.reg.saver != nil && ts.reg.registered(ts) {
			if err := ts.reg.saver.Save(rctx, next); err != nil {
				ts.reg.logger.Warn("persisting refreshed credentials failed", "err", err)
			}
		}
		return next.AccessToken, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("refreshing access token: %w", res.Err)
		}
		tok, _ := res.Val.(string)
		return tok, nil
	}
}

func (ts *TokenSource) setState(s RefreshState) {
	ts.mu.Lock()
	ts.state = s
	ts.mu.Unlock()
}
