// Package engine orchestrates inventory loads, OAuth logins and credential
// management on top of the vendor gateway and the inventory query layer.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/lightspeed"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/metrics"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/store"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/tracing"
	"github.com/donaldgifford/pos-inventory-dashboard/pkg/inventory"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

const defaultSessionTTL = 10 * time.Minute

var tracer = otel.Tracer("github.com/donaldgifford/pos-inventory-dashboard/internal/engine")

// Engine errors.
var (
	// ErrNoCredentials is returned when an operation needs stored
	// credentials and none are saved.
	ErrNoCredentials = errors.New("no credentials configured")

	// ErrNoSnapshot is returned when no inventory load has completed yet.
	ErrNoSnapshot = errors.New("inventory not loaded")

	// ErrLoginUnavailable is returned when no OAuth client is configured.
	ErrLoginUnavailable = errors.New("oauth login not configured")

	// ErrSizeRequired is returned by size-scoped loads given a blank size.
	ErrSizeRequired = errors.New("size is required")

	// ErrCredentialsChanged is returned by a load that finished after the
	// credentials it started with were replaced or cleared. Its result is
	// discarded.
	ErrCredentialsChanged = errors.New("credentials changed during load")
)

// Gateway fetches raw vendor records.
type Gateway interface {
	FetchLegacyCatalog(ctx context.Context, creds domain.LegacyCredentials) (*lightspeed.LegacyCatalog, error)
	FetchModernProducts(
		ctx context.Context,
		creds domain.ModernCredentials,
	) (*lightspeed.PageResult[json.RawMessage], error)
	FetchModernProductsBySize(
		ctx context.Context,
		creds domain.ModernCredentials,
		size string,
	) (*lightspeed.PageResult[json.RawMessage], error)
	Ping(ctx context.Context, creds domain.Credentials) error
}

// Authorizer runs the X-Series authorization-code flow.
type Authorizer interface {
	BeginAuthorization(storeDomain string) (*domain.OAuthSession, error)
	CompleteAuthorization(
		ctx context.Context,
		session *domain.OAuthSession,
		code, state string,
	) (*domain.TokenResult, error)
}

// TokenCache drops cached bearer tokens for a credential set.
type TokenCache interface {
	Forget(creds domain.ModernCredentials)
}

// CredentialStatus describes the stored credentials without secrets.
type CredentialStatus struct {
	Configured  bool              `json:"configured"`
	Generation  domain.Generation `json:"generation,omitempty"`
	Cluster     domain.Cluster    `json:"cluster,omitempty"`
	StoreDomain string            `json:"store_domain,omitempty"`
	AccountID   string            `json:"account_id,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	CanRefresh  bool              `json:"can_refresh"`
}

// Engine is the inbound interface of the dashboard backend.
type Engine struct {
	gateway    Gateway
	normalizer *lightspeed.Normalizer
	creds      store.CredentialStore
	sessions   store.SessionStore
	collection *inventory.Collection

	oauth      Authorizer
	tokens     TokenCache
	sessionTTL time.Duration
	log        *slog.Logger
	nowFunc    func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithAuthorizer enables OAuth login.
func WithAuthorizer(a Authorizer) EngineOption {
	return func(e *Engine) {
		e.oauth = a
	}
}

// WithTokenCache sets the bearer token cache invalidated on credential
// changes.
func WithTokenCache(c TokenCache) EngineOption {
	return func(e *Engine) {
		e.tokens = c
	}
}

// WithSessionTTL sets how long an unfinished login stays valid.
func WithSessionTTL(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.sessionTTL = d
	}
}

// WithCollection shares an existing collection.
func WithCollection(c *inventory.Collection) EngineOption {
	return func(e *Engine) {
		e.collection = c
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = f
	}
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	g Gateway,
	n *lightspeed.Normalizer,
	cs store.CredentialStore,
	ss store.SessionStore,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		gateway:    g,
		normalizer: n,
		creds:      cs,
		sessions:   ss,
		collection: inventory.NewCollection(),
		sessionTTL: defaultSessionTTL,
		log:        slog.Default(),
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// LoadInventory fetches, normalizes and publishes the full inventory for
// creds. A failed load leaves the current snapshot in place, and a load
// overtaken by a credential change returns ErrCredentialsChanged without
// publishing.
func (eng *Engine) LoadInventory(ctx context.Context, creds domain.Credentials) (*domain.Snapshot, error) {
	return eng.loadInventory(ctx, creds, eng.collection.Epoch())
}

func (eng *Engine) loadInventory(
	ctx context.Context,
	creds domain.Credentials,
	epoch uint64,
) (*domain.Snapshot, error) {
	if creds == nil {
		return nil, ErrNoCredentials
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	gen := string(creds.Generation())
	ctx, span := tracer.Start(ctx, "inventory.load")
	span.SetAttributes(attribute.String("generation", gen))

	start := eng.nowFunc()
	snap, err := eng.load(ctx, creds)
	tracing.End(span, err)

	if err != nil {
		metrics.InventoryLoadErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		eng.log.Error("inventory load failed", "generation", gen, "error", err)
		return nil, err
	}

	metrics.InventoryLoadDuration.WithLabelValues(gen).Observe(time.Since(start).Seconds())

	if !eng.collection.Publish(snap, epoch) {
		eng.log.Warn("discarding inventory load; credentials changed", "generation", gen, "items", len(snap.Items))
		return nil, ErrCredentialsChanged
	}

	metrics.InventoryItems.Set(float64(len(snap.Items)))
	metrics.InventoryLastLoadTimestamp.Set(float64(snap.LoadedAt.Unix()))

	eng.log.Info("inventory loaded",
		"generation", gen,
		"items", len(snap.Items),
		"skipped", snap.Skipped,
		"truncated", snap.Truncated,
		"duration", time.Since(start),
	)
	return snap, nil
}

func (eng *Engine) load(ctx context.Context, creds domain.Credentials) (*domain.Snapshot, error) {
	var (
		res       lightspeed.Result
		truncated bool
	)

	switch c := creds.(type) {
	case domain.LegacyCredentials:
		catalog, err := eng.gateway.FetchLegacyCatalog(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("fetching r_series catalog: %w", err)
		}
		res = eng.normalizer.NormalizeLegacy(catalog.Products, catalog.Variants)
		truncated = catalog.Truncated
	case domain.ModernCredentials:
		page, err := eng.gateway.FetchModernProducts(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("fetching x_series products: %w", err)
		}
		res = eng.normalizer.NormalizeModern(page.Records)
		truncated = page.Truncated
	default:
		return nil, fmt.Errorf("unsupported credentials %T", creds)
	}

	return &domain.Snapshot{
		Items:      res.Items,
		Generation: creds.Generation(),
		LoadedAt:   eng.nowFunc(),
		Skipped:    len(res.Skipped),
		Truncated:  truncated,
	}, nil
}

// LoadInventoryBySize returns the items whose size equals size exactly
// (case-insensitive). R-Series has no server-side size filter, so the full
// catalog is fetched and filtered locally; X-Series uses the vendor filter
// and re-filters exactly. The result is not published to the collection.
func (eng *Engine) LoadInventoryBySize(
	ctx context.Context,
	creds domain.Credentials,
	size string,
) ([]domain.InventoryItem, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return nil, ErrSizeRequired
	}
	if creds == nil {
		return nil, ErrNoCredentials
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "inventory.load_by_size")
	span.SetAttributes(
		attribute.String("generation", string(creds.Generation())),
		attribute.String("size", size),
	)

	items, err := eng.loadBySize(ctx, creds, size)
	tracing.End(span, err)
	if err != nil {
		metrics.InventoryLoadErrorsTotal.WithLabelValues(errorKind(err)).Inc()
		return nil, err
	}
	return items, nil
}

func (eng *Engine) loadBySize(
	ctx context.Context,
	creds domain.Credentials,
	size string,
) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem

	switch c := creds.(type) {
	case domain.LegacyCredentials:
		snap, err := eng.load(ctx, c)
		if err != nil {
			return nil, err
		}
		items = snap.Items
	case domain.ModernCredentials:
		page, err := eng.gateway.FetchModernProductsBySize(ctx, c, size)
		if err != nil {
			return nil, fmt.Errorf("fetching x_series products by size: %w", err)
		}
		items = eng.normalizer.NormalizeModern(page.Records).Items
	default:
		return nil, fmt.Errorf("unsupported credentials %T", creds)
	}

	return inventory.ApplyFilter(items, domain.FilterQuery{Sizes: []string{size}}), nil
}

// Reload loads inventory with the stored credentials.
func (eng *Engine) Reload(ctx context.Context) (*domain.Snapshot, error) {
	epoch := eng.collection.Epoch()
	creds, err := eng.storedCredentials(ctx)
	if err != nil {
		return nil, err
	}
	return eng.loadInventory(ctx, creds, epoch)
}

// Current returns the latest snapshot or ErrNoSnapshot.
func (eng *Engine) Current() (*domain.Snapshot, error) {
	snap := eng.collection.Current()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// ApplyFilter narrows items by q.
func (*Engine) ApplyFilter(items []domain.InventoryItem, q domain.FilterQuery) []domain.InventoryItem {
	return inventory.ApplyFilter(items, q)
}

// Statistics aggregates items.
func (*Engine) Statistics(items []domain.InventoryItem) domain.InventoryStatistics {
	return inventory.ComputeStatistics(items)
}

// Facets lists the distinct sizes, categories and brands of items.
func (*Engine) Facets(items []domain.InventoryItem) domain.Facets {
	return inventory.ComputeFacets(items)
}

// BeginLogin starts an X-Series OAuth login for storeDomain and stores the
// session until the callback arrives.
func (eng *Engine) BeginLogin(ctx context.Context, storeDomain string) (*domain.OAuthSession, error) {
	if eng.oauth == nil {
		return nil, ErrLoginUnavailable
	}
	storeDomain = strings.TrimSpace(storeDomain)
	if storeDomain == "" {
		return nil, &domain.InvalidCredentialFormatError{Reason: "store domain is required"}
	}

	session, err := eng.oauth.BeginAuthorization(storeDomain)
	if err != nil {
		return nil, fmt.Errorf("beginning authorization: %w", err)
	}
	if err := eng.sessions.Put(ctx, session, eng.sessionTTL); err != nil {
		return nil, fmt.Errorf("storing oauth session: %w", err)
	}

	eng.log.Info("oauth login started", "store_domain", storeDomain)
	return session, nil
}

// CompleteLogin consumes the session for state, exchanges code for tokens
// and stores the resulting credentials. An unknown or expired state is a
// state mismatch; the session is consumed whether or not the exchange works.
func (eng *Engine) CompleteLogin(ctx context.Context, code, state string) (domain.ModernCredentials, error) {
	if eng.oauth == nil {
		return domain.ModernCredentials{}, ErrLoginUnavailable
	}

	session, err := eng.sessions.Take(ctx, state)
	if errors.Is(err, store.ErrNotFound) {
		eng.log.Warn("oauth callback with unknown state")
		return domain.ModernCredentials{}, &lightspeed.StateMismatchError{}
	}
	if err != nil {
		return domain.ModernCredentials{}, fmt.Errorf("loading oauth session: %w", err)
	}

	tok, err := eng.oauth.CompleteAuthorization(ctx, session, code, state)
	if err != nil {
		eng.log.Warn("oauth login failed", "store_domain", session.StoreDomain, "error", err)
		return domain.ModernCredentials{}, err
	}

	creds := domain.ModernCredentials{StoreDomain: session.StoreDomain}.WithToken(tok)
	if err := eng.SaveCredentials(ctx, creds); err != nil {
		return domain.ModernCredentials{}, err
	}

	eng.log.Info("oauth login completed", "store_domain", creds.StoreDomain, "account_id", creds.AccountID)
	return creds, nil
}

// AbortLogin consumes the session for state after the vendor reported a
// denied or failed authorization. An unknown state is not an error.
func (eng *Engine) AbortLogin(ctx context.Context, state string) error {
	session, err := eng.sessions.Take(ctx, state)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("discarding oauth session: %w", err)
	}
	eng.log.Info("oauth login aborted", "store_domain", session.StoreDomain)
	return nil
}

// SaveCredentials validates and stores creds as the active credential set.
// Switching to a different store drops the current snapshot.
func (eng *Engine) SaveCredentials(ctx context.Context, creds domain.Credentials) error {
	if creds == nil {
		return ErrNoCredentials
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	prev, err := eng.creds.Load(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := eng.creds.Save(ctx, creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	eng.forgetTokens(creds)
	if prev != nil {
		eng.forgetTokens(prev)
		if prev.Key() != creds.Key() {
			eng.collection.Clear()
		}
	}

	eng.log.Info("credentials saved", "generation", creds.Generation())
	return nil
}

// ClearCredentials removes the stored credentials and the snapshot loaded
// with them.
func (eng *Engine) ClearCredentials(ctx context.Context) error {
	prev, err := eng.creds.Load(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("loading credentials: %w", err)
	}
	if err := eng.creds.Clear(ctx); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	if prev != nil {
		eng.forgetTokens(prev)
	}
	eng.collection.Clear()
	metrics.InventoryItems.Set(0)

	eng.log.Info("credentials cleared")
	return nil
}

// Credentials returns the stored credentials or ErrNoCredentials.
func (eng *Engine) Credentials(ctx context.Context) (domain.Credentials, error) {
	return eng.storedCredentials(ctx)
}

// CredentialStatus describes the stored credentials without secrets.
func (eng *Engine) CredentialStatus(ctx context.Context) (*CredentialStatus, error) {
	creds, err := eng.storedCredentials(ctx)
	if errors.Is(err, ErrNoCredentials) {
		return &CredentialStatus{}, nil
	}
	if err != nil {
		return nil, err
	}

	st := &CredentialStatus{Configured: true, Generation: creds.Generation()}
	switch c := creds.(type) {
	case domain.LegacyCredentials:
		st.Cluster = c.Cluster
	case domain.ModernCredentials:
		st.StoreDomain = c.StoreDomain
		st.AccountID = c.AccountID
		st.CanRefresh = c.RefreshToken != ""
		if !c.ExpiresAt.IsZero() {
			exp := c.ExpiresAt
			st.ExpiresAt = &exp
		}
	}
	return st, nil
}

// TestConnection sends one minimal request with creds, or with the stored
// credentials when creds is nil.
func (eng *Engine) TestConnection(ctx context.Context, creds domain.Credentials) error {
	if creds == nil {
		stored, err := eng.storedCredentials(ctx)
		if err != nil {
			return err
		}
		creds = stored
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "inventory.test_connection")
	span.SetAttributes(attribute.String("generation", string(creds.Generation())))
	err := eng.gateway.Ping(ctx, creds)
	tracing.End(span, err)
	if err != nil {
		return fmt.Errorf("testing connection: %w", err)
	}
	return nil
}

func (eng *Engine) storedCredentials(ctx context.Context) (domain.Credentials, error) {
	creds, err := eng.creds.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	return creds, nil
}

func (eng *Engine) forgetTokens(creds domain.Credentials) {
	if eng.tokens == nil {
		return
	}
	if c, ok := creds.(domain.ModernCredentials); ok {
		eng.tokens.Forget(c)
	}
}

// errorKind labels a load failure for metrics.
func errorKind(err error) string {
	var (
		invalid *domain.InvalidCredentialFormatError
		vendor  *lightspeed.VendorRequestError
		tokens  *lightspeed.TokenExchangeError
	)
	switch {
	case errors.Is(err, lightspeed.ErrAuthExpired):
		return "auth_expired"
	case errors.Is(err, lightspeed.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.As(err, &tokens):
		return "token_exchange"
	case errors.As(err, &vendor):
		return "vendor_request"
	case errors.As(err, &invalid):
		return "invalid_credentials"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
