package lightspeed

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/metrics"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// Vendor API hosts.
const (
	DefaultRSeriesUSHost  = "https://api.shoplightspeed.com/en"
	DefaultRSeriesEUHost  = "https://api.webshopapp.com/en"
	DefaultXSeriesBaseURL = "https://{domain}.retail.lightspeed.app/api"
)

// Resource names used in logs and metrics.
const (
	ResourceProducts = "products"
	ResourceVariants = "variants"
)

// Gateway fetches paged inventory resources from either API generation. The
// credential variant decides the host, auth header and pagination scheme.
//
// Pages are read sequentially, so products created or deleted while a fetch
// is in progress can be missed or seen twice.
type Gateway struct {
	client         Doer
	tokens         *TokenSources
	rSeriesHosts   map[domain.Cluster]string
	xSeriesBaseURL string
	legacyPageSize int
	modernPageSize int
	maxPages       int
	pageDelay      time.Duration
	retry          RetryPolicy
	breakerCfg     BreakerConfig
	logger         *slog.Logger
	sleep          func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// GatewayOption configures the Gateway.
type GatewayOption func(*Gateway)

// WithGatewayHTTPClient overrides the default HTTP client.
func WithGatewayHTTPClient(d Doer) GatewayOption {
	return func(g *Gateway) {
		g.client = d
	}
}

// WithTokenSources sets the registry used for X-Series bearer tokens.
func WithTokenSources(r *TokenSources) GatewayOption {
	return func(g *Gateway) {
		g.tokens = r
	}
}

// WithRSeriesHost overrides the base URL of an R-Series cluster.
func WithRSeriesHost(c domain.Cluster, baseURL string) GatewayOption {
	return func(g *Gateway) {
		g.rSeriesHosts[c] = strings.TrimRight(baseURL, "/")
	}
}

// WithXSeriesBaseURL overrides the X-Series base URL template. The
// "{domain}" placeholder is replaced by the store domain.
func WithXSeriesBaseURL(tmpl string) GatewayOption {
	return func(g *Gateway) {
		g.xSeriesBaseURL = strings.TrimRight(tmpl, "/")
	}
}

// WithPageSizes overrides the R-Series and X-Series page sizes.
func WithPageSizes(legacy, modern int) GatewayOption {
	return func(g *Gateway) {
		if legacy > 0 {
			g.legacyPageSize = legacy
		}
		if modern > 0 {
			g.modernPageSize = modern
		}
	}
}

// WithMaxPages bounds the number of pages read per resource.
func WithMaxPages(n int) GatewayOption {
	return func(g *Gateway) {
		g.maxPages = n
	}
}

// WithPageDelay sets the minimum spacing between page requests.
func WithPageDelay(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.pageDelay = d
	}
}

// WithRetryPolicy overrides the per-page retry policy.
func WithRetryPolicy(p RetryPolicy) GatewayOption {
	return func(g *Gateway) {
		g.retry = p
	}
}

// WithBreakerConfig overrides the circuit breaker settings.
func WithBreakerConfig(c BreakerConfig) GatewayOption {
	return func(g *Gateway) {
		g.breakerCfg = c
	}
}

// WithGatewayLogger sets the logger.
func WithGatewayLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithSleepFunc overrides the retry backoff sleep for testing.
func WithSleepFunc(f func(ctx context.Context, d time.Duration) error) GatewayOption {
	return func(g *Gateway) {
		g.sleep = f
	}
}

// NewGateway creates a vendor gateway.
func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{
		client: defaultHTTPClient(),
		rSeriesHosts: map[domain.Cluster]string{
			domain.ClusterUS: DefaultRSeriesUSHost,
			domain.ClusterEU: DefaultRSeriesEUHost,
		},
		xSeriesBaseURL: DefaultXSeriesBaseURL,
		legacyPageSize: defaultLegacyPageSize,
		modernPageSize: defaultModernPageSize,
		maxPages:       defaultMaxPages,
		pageDelay:      defaultPageDelay,
		retry:          DefaultRetryPolicy(),
		breakerCfg:     DefaultBreakerConfig(),
		logger:         slog.Default(),
		sleep:          sleepCtx,
		breakers:       make(map[string]*Breaker),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.tokens == nil {
		g.tokens = NewTokenSources(noRefresh{}, WithTokenLogger(g.logger))
	}
	return g
}

// Tokens returns the registry used for X-Series bearer tokens.
func (g *Gateway) Tokens() *TokenSources {
	return g.tokens
}

// LegacyCatalog is the raw R-Series product and variant listing.
type LegacyCatalog struct {
	Products  []json.RawMessage
	Variants  []json.RawMessage
	Truncated bool
}

// FetchLegacyProducts reads every R-Series product.
func (g *Gateway) FetchLegacyProducts(
	ctx context.Context,
	creds domain.LegacyCredentials,
) (*PageResult[json.RawMessage], error) {
	return g.fetchLegacy(ctx, creds, ResourceProducts, "/products.json", "product")
}

// FetchAllVariants reads every R-Series variant.
func (g *Gateway) FetchAllVariants(
	ctx context.Context,
	creds domain.LegacyCredentials,
) (*PageResult[json.RawMessage], error) {
	return g.fetchLegacy(ctx, creds, ResourceVariants, "/variants.json", "variant")
}

// FetchLegacyCatalog reads R-Series products and variants concurrently. Each
// resource is paged sequentially.
func (g *Gateway) FetchLegacyCatalog(
	ctx context.Context,
	creds domain.LegacyCredentials,
) (*LegacyCatalog, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var products, variants *PageResult[json.RawMessage]

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		products, err = g.FetchLegacyProducts(egCtx, creds)
		return err
	})
	eg.Go(func() error {
		var err error
		variants, err = g.FetchAllVariants(egCtx, creds)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &LegacyCatalog{
		Products:  products.Records,
		Variants:  variants.Records,
		Truncated: products.Truncated || variants.Truncated,
	}, nil
}

// FetchModernProducts reads every X-Series product variant.
func (g *Gateway) FetchModernProducts(
	ctx context.Context,
	creds domain.ModernCredentials,
) (*PageResult[json.RawMessage], error) {
	return g.fetchModern(ctx, creds, nil)
}

// FetchModernProductsBySize reads the X-Series variants the vendor matches
// to size. The vendor filter may be fuzzy; callers re-filter exactly.
func (g *Gateway) FetchModernProductsBySize(
	ctx context.Context,
	creds domain.ModernCredentials,
	size string,
) (*PageResult[json.RawMessage], error) {
	return g.fetchModern(ctx, creds, url.Values{"filter[variant_options][Size]": {size}})
}

// Ping sends a single one-record request to verify the credentials.
func (g *Gateway) Ping(ctx context.Context, creds domain.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	var (
		a      authorizer
		target string
	)
	switch c := creds.(type) {
	case domain.LegacyCredentials:
		base, err := g.legacyBase(c)
		if err != nil {
			return err
		}
		a = basicAuth{creds: c}
		target = base + "/products.json?limit=1"
	case domain.ModernCredentials:
		a = bearerAuth{ts: g.tokens.For(c)}
		target = g.modernBase(c) + "/2.0/products?limit=1"
	default:
		return fmt.Errorf("unsupported credentials %T", creds)
	}

	_, err := g.get(ctx, a, "ping", target)
	return err
}

func (g *Gateway) fetchLegacy(
	ctx context.Context,
	creds domain.LegacyCredentials,
	resource, path, singleKey string,
) (*PageResult[json.RawMessage], error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	base, err := g.legacyBase(creds)
	if err != nil {
		return nil, err
	}

	a := basicAuth{creds: creds}
	pageSize := g.legacyPageSize

	return Paginate(ctx, g.pagination(domain.GenerationRSeries, resource, pageSize),
		func(ctx context.Context, index int) ([]json.RawMessage, error) {
			q := url.Values{
				"limit": {strconv.Itoa(pageSize)},
				"page":  {strconv.Itoa(index + 1)},
			}
			body, err := g.get(ctx, a, resource, base+path+"?"+q.Encode())
			if err != nil {
				return nil, err
			}
			return decodeEnvelope(body, resource, resource, singleKey)
		})
}

func (g *Gateway) fetchModern(
	ctx context.Context,
	creds domain.ModernCredentials,
	filter url.Values,
) (*PageResult[json.RawMessage], error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	a := bearerAuth{ts: g.tokens.For(creds)}
	base := g.modernBase(creds)
	pageSize := g.modernPageSize

	return Paginate(ctx, g.pagination(domain.GenerationXSeries, ResourceProducts, pageSize),
		func(ctx context.Context, index int) ([]json.RawMessage, error) {
			q := url.Values{}
			for k, v := range filter {
				q[k] = v
			}
			q.Set("limit", strconv.Itoa(pageSize))
			q.Set("offset", strconv.Itoa(index*pageSize))
			body, err := g.get(ctx, a, ResourceProducts, base+"/2.0/products?"+q.Encode())
			if err != nil {
				return nil, err
			}
			return decodeEnvelope(body, ResourceProducts, "data", "")
		})
}

func (g *Gateway) pagination(gen domain.Generation, resource string, pageSize int) Pagination {
	return Pagination{
		Generation: gen,
		Resource:   resource,
		PageSize:   pageSize,
		MaxPages:   g.maxPages,
		PageDelay:  g.pageDelay,
		Logger:     g.logger,
	}
}

func (g *Gateway) legacyBase(c domain.LegacyCredentials) (string, error) {
	cluster, _ := domain.ParseCluster(string(c.Cluster))
	base, ok := g.rSeriesHosts[cluster]
	if !ok {
		return "", &domain.InvalidCredentialFormatError{
			Reason: fmt.Sprintf("no host configured for cluster %q", c.Cluster),
		}
	}
	return base, nil
}

func (g *Gateway) modernBase(c domain.ModernCredentials) string {
	return strings.ReplaceAll(g.xSeriesBaseURL, "{domain}", url.PathEscape(strings.ToLower(c.StoreDomain)))
}

func (g *Gateway) breakerFor(gen domain.Generation, rawURL string) *Breaker {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	name := string(gen) + ":" + host

	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.breakers[name]; ok {
		return b
	}
	b := NewBreaker(name, g.breakerCfg, g.logger)
	g.breakers[name] = b
	return b
}

// get performs one logical page request: auth, retry with backoff, and the
// breaker of the target host.
func (g *Gateway) get(ctx context.Context, a authorizer, op, target string) (_ []byte, err error) {
	ctx, span := tracer.Start(ctx, "lightspeed.fetch_page")
	span.SetAttributes(
		attribute.String("vendor.generation", string(a.generation())),
		attribute.String("vendor.op", op),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	r := &retrier{
		policy:     g.retry,
		breaker:    g.breakerFor(a.generation(), target),
		generation: a.generation(),
		logger:     g.logger,
		sleep:      g.sleep,
	}

	var body []byte
	err = r.do(ctx, op, func(ctx context.Context) error {
		b, err := g.getOnce(ctx, a, op, target)
		body = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// getOnce sends a request, handling a bearer 401 with exactly one token
// refresh and resend.
func (g *Gateway) getOnce(ctx context.Context, a authorizer, op, target string) ([]byte, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, &AuthExpiredError{Generation: a.generation(), Cause: err}
	}

	status, body, err := g.send(ctx, a, target, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		fresh, ok, err := a.refresh(ctx, token)
		if !ok {
			return nil, &AuthExpiredError{
				Generation: a.generation(),
				Cause:      &VendorRequestError{Op: op, Status: status, Body: truncateBody(body)},
			}
		}
		if err != nil {
			return nil, &AuthExpiredError{Generation: a.generation(), Cause: err}
		}

		status, body, err = g.send(ctx, a, target, fresh)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, &AuthExpiredError{
				Generation: a.generation(),
				Cause:      &VendorRequestError{Op: op, Status: status, Body: truncateBody(body)},
			}
		}
	}

	switch {
	case status >= 200 && status <= 299:
		return body, nil
	case status == http.StatusTooManyRequests || status >= 500:
		return nil, &transientError{err: &VendorRequestError{Op: op, Status: status, Body: truncateBody(body)}}
	default:
		return nil, &VendorRequestError{Op: op, Status: status, Body: truncateBody(body)}
	}
}

// send performs a single HTTP exchange. Transport failures are transient.
func (g *Gateway) send(ctx context.Context, a authorizer, target, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Authorization", a.header(token))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		metrics.VendorRequestsTotal.WithLabelValues(string(a.generation()), "error").Inc()
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		return 0, nil, &transientError{err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.VendorRequestsTotal.WithLabelValues(string(a.generation()), strconv.Itoa(resp.StatusCode)).Inc()
	if err != nil {
		return 0, nil, &transientError{err: fmt.Errorf("reading response body: %w", err)}
	}
	return resp.StatusCode, body, nil
}

// decodeEnvelope extracts the record list of a page. listKey holds an array;
// singleKey, when set, may hold one object instead. A missing, null or false
// list is an empty page.
func decodeEnvelope(body []byte, op, listKey, singleKey string) ([]json.RawMessage, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &VendorRequestError{Op: op, Status: http.StatusOK, Body: "decoding page: " + err.Error()}
	}

	if raw, ok := env[listKey]; ok && !emptyJSON(raw) {
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			if singleKey != "" && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
				return []json.RawMessage{raw}, nil
			}
			return nil, &VendorRequestError{Op: op, Status: http.StatusOK, Body: "decoding " + listKey + ": " + err.Error()}
		}
		return records, nil
	}

	if singleKey != "" {
		if raw, ok := env[singleKey]; ok && !emptyJSON(raw) {
			return []json.RawMessage{raw}, nil
		}
	}
	return nil, nil
}

func emptyJSON(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s == "" || s == "null" || s == "false"
}

// authorizer supplies the credential header for one API generation.
type authorizer interface {
	generation() domain.Generation
	token(ctx context.Context) (string, error)
	header(token string) string
	// refresh replaces a rejected token. ok is false when the generation
	// cannot refresh.
	refresh(ctx context.Context, stale string) (fresh string, ok bool, err error)
}

type basicAuth struct {
	creds domain.LegacyCredentials
}

func (basicAuth) generation() domain.Generation { return domain.GenerationRSeries }

func (a basicAuth) token(context.Context) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(a.creds.APIKey + ":" + a.creds.APISecret)), nil
}

func (basicAuth) header(token string) string { return "Basic " + token }

func (basicAuth) refresh(context.Context, string) (string, bool, error) { return "", false, nil }

type bearerAuth struct {
	ts *TokenSource
}

func (bearerAuth) generation() domain.Generation { return domain.GenerationXSeries }

func (a bearerAuth) token(ctx context.Context) (string, error) { return a.ts.Token(ctx) }

func (bearerAuth) header(token string) string { return "Bearer " + token }

func (a bearerAuth) refresh(ctx context.Context, stale string) (string, bool, error) {
	fresh, err := a.ts.Invalidate(ctx, stale)
	return fresh, true, err
}

// noRefresh is the refresher of a gateway built without OAuth settings.
type noRefresh struct{}

func (noRefresh) Refresh(context.Context, string) (*domain.TokenResult, error) {
	return nil, &TokenExchangeError{Grant: grantRefreshToken, Body: "token refresh is not configured"}
}
