// Package store keeps the active vendor credentials and pending OAuth
// sessions. Business logic depends on the CredentialStore and SessionStore
// interfaces, never on a concrete backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// ErrNotFound is returned when no credentials or session exist.
var ErrNotFound = errors.New("not found")

// CredentialStore holds the single active credential set.
type CredentialStore interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, creds domain.Credentials) error
	Clear(ctx context.Context) error
}

// SessionStore holds OAuth sessions between the authorization redirect and
// the vendor callback.
type SessionStore interface {
	Put(ctx context.Context, session *domain.OAuthSession, ttl time.Duration) error
	// Take returns and deletes the session for state in one step.
	Take(ctx context.Context, state string) (*domain.OAuthSession, error)
}

// credentialRecord is the generation-tagged persisted form of Credentials.
type credentialRecord struct {
	Generation domain.Generation          `json:"generation"`
	RSeries    *domain.LegacyCredentials `json:"r_series,omitempty"`
	XSeries    *domain.ModernCredentials `json:"x_series,omitempty"`
}

// EncodeCredentials serializes creds with its generation tag.
func EncodeCredentials(creds domain.Credentials) ([]byte, error) {
	rec := credentialRecord{}
	switch c := creds.(type) {
	case domain.LegacyCredentials:
		rec.Generation = domain.GenerationRSeries
		rec.RSeries = &c
	case domain.ModernCredentials:
		rec.Generation = domain.GenerationXSeries
		rec.XSeries = &c
	default:
		return nil, fmt.Errorf("unsupported credentials %T", creds)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding credentials: %w", err)
	}
	return b, nil
}

// DecodeCredentials restores credentials written by EncodeCredentials.
func DecodeCredentials(b []byte) (domain.Credentials, error) {
	var rec credentialRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}

	switch {
	case rec.Generation == domain.GenerationRSeries && rec.RSeries != nil:
		return *rec.RSeries, nil
	case rec.Generation == domain.GenerationXSeries && rec.XSeries != nil:
		return *rec.XSeries, nil
	default:
		return nil, fmt.Errorf("decoding credentials: unknown generation %q", rec.Generation)
	}
}
