package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty config uses defaults",
			yaml: `{}`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "https://api.shoplightspeed.com/en", cfg.Lightspeed.RSeries.USHost)
				assert.Equal(t, "https://api.webshopapp.com/en", cfg.Lightspeed.RSeries.EUHost)
				assert.Equal(t, "https://{domain}.retail.lightspeed.app/api", cfg.Lightspeed.XSeries.BaseURL)
				assert.Equal(t, 250, cfg.Lightspeed.Pagination.LegacyPageSize)
				assert.Equal(t, 200, cfg.Lightspeed.Pagination.ModernPageSize)
				assert.Equal(t, 500, cfg.Lightspeed.Pagination.MaxPages)
				assert.Equal(t, 100*time.Millisecond, cfg.Lightspeed.Pagination.PageDelay)
				assert.Equal(t, 3, cfg.Lightspeed.Retry.MaxAttempts)
				assert.Equal(t, 5, cfg.Lightspeed.Breaker.FailureThreshold)
				assert.Equal(t, 60*time.Second, cfg.Lightspeed.RefreshBuffer)
				assert.Equal(t, 10*time.Minute, cfg.Lightspeed.SessionTTL)
				assert.Equal(t, 5, cfg.Lightspeed.StockAlertDefault)
				assert.False(t, cfg.Lightspeed.OAuth.Enabled())
				assert.Nil(t, cfg.Credentials)
				assert.Equal(t, StoreMemory, cfg.Store.Backend)
				assert.Equal(t, time.Duration(0), cfg.Schedule.ReloadInterval)
				assert.False(t, cfg.Tracing.Enabled)
				assert.Equal(t, "inventory-dashboard", cfg.Tracing.ServiceName)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: `
lightspeed:
  oauth:
    client_id: app
    client_secret: "${TEST_OAUTH_SECRET}"
    redirect_url: http://localhost:8080/api/v1/auth/callback
`,
			envVars: map[string]string{
				"TEST_OAUTH_SECRET": "secret123",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.True(t, cfg.Lightspeed.OAuth.Enabled())
				assert.Equal(t, "secret123", cfg.Lightspeed.OAuth.ClientSecret)
			},
		},
		{
			name: "oauth missing secret and redirect",
			yaml: `
lightspeed:
  oauth:
    client_id: app
`,
			wantErr: "lightspeed.oauth.client_secret is required when client_id is set",
		},
		{
			name: "legacy page size above vendor maximum",
			yaml: `
lightspeed:
  pagination:
    legacy_page_size: 500
`,
			wantErr: "legacy_page_size must be between 1 and 250 (got 500)",
		},
		{
			name: "invalid store backend",
			yaml: `
store:
  backend: etcd
`,
			wantErr: `store.backend must be one of: memory, redis (got "etcd")`,
		},
		{
			name: "redis backend missing addr",
			yaml: `
store:
  backend: redis
`,
			wantErr: "store.redis.addr is required when backend is redis",
		},
		{
			name: "tracing enabled without endpoint",
			yaml: `
tracing:
  enabled: true
`,
			wantErr: "tracing.endpoint is required when tracing is enabled",
		},
		{
			name: "invalid logging level",
			yaml: `
logging:
  level: verbose
`,
			wantErr: `logging.level must be one of: debug, info, warn, error (got "verbose")`,
		},
		{
			name: "mixed credentials rejected",
			yaml: `
credentials:
  api_key: key
  store_domain: shop
`,
			wantErr: "credentials: invalid credential format",
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: "127.0.0.1"
  port: 9090
lightspeed:
  r_series:
    us_host: http://mock/us
  x_series:
    base_url: http://mock/x/{domain}
  pagination:
    legacy_page_size: 100
    modern_page_size: 50
    max_pages: 10
    page_delay: 0s
  breaker:
    failure_threshold: -1
  stock_alert_default: 3
  categories:
    - category: headwear
      keywords: [hat, cap]
  category_fallback: other
credentials:
  api_key: key
  api_secret: secret
  cluster: eu1
store:
  backend: redis
  redis:
    addr: localhost:6379
schedule:
  reload_interval: 30m
  load_on_start: true
tracing:
  enabled: true
  endpoint: localhost:4317
  insecure: true
  sample_ratio: 0.5
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "http://mock/us", cfg.Lightspeed.RSeries.USHost)
				assert.Equal(t, "http://mock/x/{domain}", cfg.Lightspeed.XSeries.BaseURL)
				assert.Equal(t, 100, cfg.Lightspeed.Pagination.LegacyPageSize)
				assert.Equal(t, 50, cfg.Lightspeed.Pagination.ModernPageSize)
				assert.Equal(t, 10, cfg.Lightspeed.Pagination.MaxPages)
				assert.Equal(t, -1, cfg.Lightspeed.Breaker.FailureThreshold)
				assert.Equal(t, 3, cfg.Lightspeed.StockAlertDefault)
				require.Len(t, cfg.Lightspeed.Categories, 1)
				assert.Equal(t, "headwear", cfg.Lightspeed.Categories[0].Category)
				assert.Equal(t, []string{"hat", "cap"}, cfg.Lightspeed.Categories[0].Keywords)
				assert.Equal(t, "other", cfg.Lightspeed.CategoryFallback)
				assert.Equal(t, StoreRedis, cfg.Store.Backend)
				assert.Equal(t, "invdash", cfg.Store.Redis.KeyPrefix)
				assert.Equal(t, 30*time.Minute, cfg.Schedule.ReloadInterval)
				assert.True(t, cfg.Schedule.LoadOnStart)
				assert.InDelta(t, 0.5, cfg.Tracing.SampleRatio, 1e-9)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)

				require.NotNil(t, cfg.Credentials)
				creds, err := cfg.Credentials.Parse()
				require.NoError(t, err)
				assert.Equal(t, domain.LegacyCredentials{
					APIKey: "key", APISecret: "secret", Cluster: domain.ClusterEU,
				}, creds)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	const key = "INVDASH_TEST_DOTENV_SECRET"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=from-dotenv\n"), 0o600))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
lightspeed:
  oauth:
    client_id: app
    client_secret: "${`+key+`}"
    redirect_url: http://localhost/cb
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Lightspeed.OAuth.ClientSecret)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}
