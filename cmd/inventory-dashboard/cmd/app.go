package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/config"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/engine"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/lightspeed"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/store"
	"github.com/donaldgifford/pos-inventory-dashboard/pkg/inventory"
	"github.com/donaldgifford/pos-inventory-dashboard/pkg/logger"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// app holds the wired components shared by serve and load.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	engine *engine.Engine
	redis  *store.RedisStore
}

// stores is the combined credential and session store.
type stores interface {
	store.CredentialStore
	store.SessionStore
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	var st stores
	switch cfg.Store.Backend {
	case config.StoreRedis:
		rs, err := store.NewRedisStore(ctx, store.RedisConfig{
			Addr:      cfg.Store.Redis.Addr,
			Password:  cfg.Store.Redis.Password,
			DB:        cfg.Store.Redis.DB,
			KeyPrefix: cfg.Store.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.redis = rs
		st = rs
	default:
		st = store.NewMemoryStore()
	}

	ls := &cfg.Lightspeed
	httpClient := &http.Client{Timeout: ls.RequestTimeout}

	gwOpts := []lightspeed.GatewayOption{
		lightspeed.WithGatewayHTTPClient(httpClient),
		lightspeed.WithRSeriesHost(domain.ClusterUS, ls.RSeries.USHost),
		lightspeed.WithRSeriesHost(domain.ClusterEU, ls.RSeries.EUHost),
		lightspeed.WithXSeriesBaseURL(ls.XSeries.BaseURL),
		lightspeed.WithPageSizes(ls.Pagination.LegacyPageSize, ls.Pagination.ModernPageSize),
		lightspeed.WithMaxPages(ls.Pagination.MaxPages),
		lightspeed.WithPageDelay(ls.Pagination.PageDelay),
		lightspeed.WithRetryPolicy(lightspeed.RetryPolicy{
			MaxAttempts:  ls.Retry.MaxAttempts,
			InitialDelay: ls.Retry.InitialDelay,
			MaxDelay:     ls.Retry.MaxDelay,
			Multiplier:   2,
		}),
		lightspeed.WithBreakerConfig(breakerConfig(ls.Breaker)),
		lightspeed.WithGatewayLogger(logger.Component(log, "lightspeed")),
	}

	engOpts := []engine.EngineOption{
		engine.WithLogger(logger.Component(log, "engine")),
		engine.WithSessionTTL(ls.SessionTTL),
	}

	if ls.OAuth.Enabled() {
		oauth := lightspeed.NewOAuthClient(
			ls.OAuth.ClientID, ls.OAuth.ClientSecret, ls.OAuth.RedirectURL,
			lightspeed.WithAuthorizeURL(ls.OAuth.AuthorizeURL),
			lightspeed.WithTokenURL(ls.OAuth.TokenURL),
			lightspeed.WithAccountURL(ls.OAuth.AccountURL),
			lightspeed.WithScopes(ls.OAuth.Scopes),
			lightspeed.WithHTTPClient(httpClient),
			lightspeed.WithOAuthLogger(logger.Component(log, "oauth")),
		)
		tokens := lightspeed.NewTokenSources(oauth,
			lightspeed.WithCredentialSaver(st),
			lightspeed.WithRefreshBuffer(ls.RefreshBuffer),
			lightspeed.WithTokenLogger(logger.Component(log, "tokens")),
		)
		gwOpts = append(gwOpts, lightspeed.WithTokenSources(tokens))
		engOpts = append(engOpts, engine.WithAuthorizer(oauth), engine.WithTokenCache(tokens))
	}

	normalizer := lightspeed.NewNormalizer(
		lightspeed.WithClassifier(inventory.NewClassifier(ls.Categories, ls.CategoryFallback)),
		lightspeed.WithModernStockAlert(ls.StockAlertDefault),
		lightspeed.WithNormalizerLogger(logger.Component(log, "normalizer")),
	)

	a.engine = engine.NewEngine(lightspeed.NewGateway(gwOpts...), normalizer, st, st, engOpts...)

	if err := a.bootstrapCredentials(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// bootstrapCredentials saves the configured credentials when the store has
// none, so a shared store keeps credentials changed through the API.
func (a *app) bootstrapCredentials(ctx context.Context) error {
	if a.cfg.Credentials == nil {
		return nil
	}

	_, err := a.engine.Credentials(ctx)
	switch {
	case err == nil:
		a.log.Info("using stored credentials; ignoring configured credentials")
		return nil
	case !errors.Is(err, engine.ErrNoCredentials):
		return fmt.Errorf("loading stored credentials: %w", err)
	}

	creds, err := a.cfg.Credentials.Parse()
	if err != nil {
		return fmt.Errorf("parsing configured credentials: %w", err)
	}
	if err := a.engine.SaveCredentials(ctx, creds); err != nil {
		return fmt.Errorf("saving configured credentials: %w", err)
	}
	return nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("closing redis", "error", err)
		}
	}
}

// breakerConfig maps the config threshold, where negative disables the
// breaker, to the gateway setting, where zero does.
func breakerConfig(c config.BreakerConfig) lightspeed.BreakerConfig {
	bc := lightspeed.DefaultBreakerConfig()
	bc.OpenTimeout = c.OpenTimeout
	if c.FailureThreshold < 0 {
		bc.FailureThreshold = 0
	} else {
		bc.FailureThreshold = uint32(c.FailureThreshold) //nolint:gosec // validated non-negative
	}
	return bc
}
