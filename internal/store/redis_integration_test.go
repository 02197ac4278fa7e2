//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/store"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

func setupRedis(t *testing.T) *store.RedisStore {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	s, err := store.NewRedisStore(ctx, store.RedisConfig{Addr: addr, KeyPrefix: "test"})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func TestRedisStore_Ping(t *testing.T) {
	s := setupRedis(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestRedisStore_Credentials(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	creds := domain.LegacyCredentials{APIKey: "key", APISecret: "secret", Cluster: domain.ClusterUS}
	require.NoError(t, s.Save(ctx, creds))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedisStore_Sessions(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	session := &domain.OAuthSession{State: "abc", CodeVerifier: "v", StoreDomain: "shop"}
	require.NoError(t, s.Put(ctx, session, time.Minute))

	got, err := s.Take(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "v", got.CodeVerifier)
	assert.Equal(t, "shop", got.StoreDomain)

	_, err = s.Take(ctx, "abc")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedisStore_SessionExpiry(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &domain.OAuthSession{State: "short"}, time.Second))
	time.Sleep(1500 * time.Millisecond)

	_, err := s.Take(ctx, "short")
	require.ErrorIs(t, err, store.ErrNotFound)
}
