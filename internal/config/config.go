// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/pos-inventory-dashboard/pkg/inventory"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig       `yaml:"server"`
	Lightspeed  LightspeedConfig   `yaml:"lightspeed"`
	Credentials *CredentialsConfig `yaml:"credentials"`
	Store       StoreConfig        `yaml:"store"`
	Schedule    ScheduleConfig     `yaml:"schedule"`
	Tracing     TracingConfig      `yaml:"tracing"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LightspeedConfig defines vendor API settings for both generations.
type LightspeedConfig struct {
	RSeries           RSeriesConfig           `yaml:"r_series"`
	XSeries           XSeriesConfig           `yaml:"x_series"`
	OAuth             OAuthConfig             `yaml:"oauth"`
	Pagination        PaginationConfig        `yaml:"pagination"`
	Retry             RetryConfig             `yaml:"retry"`
	Breaker           BreakerConfig           `yaml:"breaker"`
	RefreshBuffer     time.Duration           `yaml:"refresh_buffer"`
	SessionTTL        time.Duration           `yaml:"session_ttl"`
	RequestTimeout    time.Duration           `yaml:"request_timeout"`
	StockAlertDefault int                     `yaml:"stock_alert_default"`
	Categories        []inventory.CategoryRule `yaml:"categories"`
	CategoryFallback  string                  `yaml:"category_fallback"`
}

// RSeriesConfig defines the legacy API hosts per cluster.
type RSeriesConfig struct {
	USHost string `yaml:"us_host"`
	EUHost string `yaml:"eu_host"`
}

// XSeriesConfig defines the modern API base URL. "{domain}" is replaced by
// the store domain.
type XSeriesConfig struct {
	BaseURL string `yaml:"base_url"`
}

// OAuthConfig defines the X-Series OAuth client.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	AuthorizeURL string `yaml:"authorize_url"`
	TokenURL     string `yaml:"token_url"`
	AccountURL   string `yaml:"account_url"`
	Scopes       string `yaml:"scopes"`
}

// Enabled reports whether an OAuth client is configured.
func (o *OAuthConfig) Enabled() bool {
	return o.ClientID != ""
}

// PaginationConfig defines page sizes and pacing.
type PaginationConfig struct {
	LegacyPageSize int           `yaml:"legacy_page_size"`
	ModernPageSize int           `yaml:"modern_page_size"`
	MaxPages       int           `yaml:"max_pages"`
	PageDelay      time.Duration `yaml:"page_delay"`
}

// RetryConfig defines the per-page retry budget.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// BreakerConfig defines the vendor circuit breaker. A negative threshold
// disables it.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

// CredentialsConfig bootstraps credentials at startup. Either the R-Series
// fields or the X-Series fields are set.
type CredentialsConfig struct {
	APIKey       string `yaml:"api_key"`
	APISecret    string `yaml:"api_secret"`
	Cluster      string `yaml:"cluster"`
	StoreDomain  string `yaml:"store_domain"`
	AccessToken  string `yaml:"access_token"`
	RefreshToken string `yaml:"refresh_token"`
}

// Parse resolves the configured fields into one credential variant.
func (c *CredentialsConfig) Parse() (domain.Credentials, error) {
	return domain.ParseCredentials(domain.RawCredentials{
		APIKey:       c.APIKey,
		APISecret:    c.APISecret,
		Cluster:      c.Cluster,
		StoreDomain:  c.StoreDomain,
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
	})
}

// StoreConfig selects the credential and session store.
type StoreConfig struct {
	Backend string      `yaml:"backend"` // memory, redis
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig defines Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// ScheduleConfig defines background reloads. A zero interval disables them.
type ScheduleConfig struct {
	ReloadInterval time.Duration `yaml:"reload_interval"`
	LoadOnStart    bool          `yaml:"load_on_start"`
}

// TracingConfig defines the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation. A .env file next to the config file, if
// present, is loaded first; variables already set in the environment win.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyLightspeedDefaults(&cfg.Lightspeed)
	applyStoreDefaults(&cfg.Store)
	applyScheduleDefaults(&cfg.Schedule)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 5 * time.Minute
	}
}

func applyLightspeedDefaults(l *LightspeedConfig) {
	if l.RSeries.USHost == "" {
		l.RSeries.USHost = "https://api.shoplightspeed.com/en"
	}
	if l.RSeries.EUHost == "" {
		l.RSeries.EUHost = "https://api.webshopapp.com/en"
	}
	if l.XSeries.BaseURL == "" {
		l.XSeries.BaseURL = "https://{domain}.retail.lightspeed.app/api"
	}
	applyOAuthDefaults(&l.OAuth)
	applyPaginationDefaults(&l.Pagination)
	applyRetryDefaults(&l.Retry)
	applyBreakerDefaults(&l.Breaker)
	if l.RefreshBuffer == 0 {
		l.RefreshBuffer = 60 * time.Second
	}
	if l.SessionTTL == 0 {
		l.SessionTTL = 10 * time.Minute
	}
	if l.RequestTimeout == 0 {
		l.RequestTimeout = 30 * time.Second
	}
	if l.StockAlertDefault == 0 {
		l.StockAlertDefault = 5
	}
}

func applyOAuthDefaults(o *OAuthConfig) {
	if o.AuthorizeURL == "" {
		o.AuthorizeURL = "https://cloud.lightspeedapp.com/auth/oauth/authorize"
	}
	if o.TokenURL == "" {
		o.TokenURL = "https://cloud.lightspeedapp.com/auth/oauth/token"
	}
	if o.AccountURL == "" {
		o.AccountURL = "https://api.lightspeedapp.com/API/V3/Account.json"
	}
	if o.Scopes == "" {
		o.Scopes = "employee:register employee:inventory"
	}
}

func applyPaginationDefaults(p *PaginationConfig) {
	if p.LegacyPageSize == 0 {
		p.LegacyPageSize = 250
	}
	if p.ModernPageSize == 0 {
		p.ModernPageSize = 200
	}
	if p.MaxPages == 0 {
		p.MaxPages = 500
	}
	if p.PageDelay == 0 {
		p.PageDelay = 100 * time.Millisecond
	}
}

func applyRetryDefaults(r *RetryConfig) {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 3
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = 250 * time.Millisecond
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = 4 * time.Second
	}
}

func applyBreakerDefaults(b *BreakerConfig) {
	if b.FailureThreshold == 0 {
		b.FailureThreshold = 5
	}
	if b.OpenTimeout == 0 {
		b.OpenTimeout = 30 * time.Second
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Backend == "" {
		s.Backend = StoreMemory
	}
	if s.Redis.KeyPrefix == "" {
		s.Redis.KeyPrefix = "invdash"
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.ReloadInterval < 0 {
		s.ReloadInterval = 0
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "inventory-dashboard"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1.0
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	p := cfg.Lightspeed.Pagination
	if p.LegacyPageSize < 1 || p.LegacyPageSize > 250 {
		errs = append(errs, fmt.Errorf(
			"lightspeed.pagination.legacy_page_size must be between 1 and 250 (got %d)", p.LegacyPageSize))
	}
	if p.ModernPageSize < 1 {
		errs = append(errs, fmt.Errorf(
			"lightspeed.pagination.modern_page_size must be positive (got %d)", p.ModernPageSize))
	}
	if p.MaxPages < 1 {
		errs = append(errs, fmt.Errorf("lightspeed.pagination.max_pages must be positive (got %d)", p.MaxPages))
	}
	if cfg.Lightspeed.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("lightspeed.retry.max_attempts must be positive"))
	}

	o := cfg.Lightspeed.OAuth
	if o.Enabled() {
		if o.ClientSecret == "" {
			errs = append(errs, errors.New("lightspeed.oauth.client_secret is required when client_id is set"))
		}
		if o.RedirectURL == "" {
			errs = append(errs, errors.New("lightspeed.oauth.redirect_url is required when client_id is set"))
		}
	}

	if cfg.Credentials != nil {
		if _, err := cfg.Credentials.Parse(); err != nil {
			errs = append(errs, fmt.Errorf("credentials: %w", err))
		}
	}

	switch cfg.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if cfg.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required when backend is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"store.backend must be one of: memory, redis (got %q)", cfg.Store.Backend))
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("tracing.endpoint is required when tracing is enabled"))
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be between 0 and 1 (got %g)", cfg.Tracing.SampleRatio))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.Logging.Level) {
		errs = append(errs, fmt.Errorf(
			"logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be one of: text, json (got %q)", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}
