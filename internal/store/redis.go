package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

const defaultKeyPrefix = "invdash"

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps credentials and sessions in Redis so that several
// replicas share one login.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) credentialsKey() string {
	return s.keyPrefix + ":credentials"
}

func (s *RedisStore) sessionKey(state string) string {
	return s.keyPrefix + ":oauth_session:" + state
}

// Load implements CredentialStore.
func (s *RedisStore) Load(ctx context.Context) (domain.Credentials, error) {
	b, err := s.client.Get(ctx, s.credentialsKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	return DecodeCredentials(b)
}

// Save implements CredentialStore.
func (s *RedisStore) Save(ctx context.Context, creds domain.Credentials) error {
	b, err := EncodeCredentials(creds)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.credentialsKey(), b, 0).Err(); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Clear implements CredentialStore.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.credentialsKey()).Err(); err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

// Put implements SessionStore. Redis expires the session after ttl.
func (s *RedisStore) Put(ctx context.Context, session *domain.OAuthSession, ttl time.Duration) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(session.State), b, ttl).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// Take implements SessionStore using GETDEL, so a session is consumed at
// most once across replicas.
func (s *RedisStore) Take(ctx context.Context, state string) (*domain.OAuthSession, error) {
	b, err := s.client.GetDel(ctx, s.sessionKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("taking session: %w", err)
	}

	var session domain.OAuthSession
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}
