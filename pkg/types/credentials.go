package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Generation identifies which vendor API generation a credential set targets.
type Generation string

// Generation constants.
const (
	GenerationRSeries Generation = "r_series"
	GenerationXSeries Generation = "x_series"
)

// Cluster selects the R-Series regional host.
type Cluster string

// Cluster constants.
const (
	ClusterUS Cluster = "us"
	ClusterEU Cluster = "eu"
)

// ParseCluster accepts "us", "eu" and the vendor's "us1"/"eu1" spellings.
func ParseCluster(s string) (Cluster, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us", "us1":
		return ClusterUS, true
	case "eu", "eu1":
		return ClusterEU, true
	default:
		return "", false
	}
}

// InvalidCredentialFormatError reports a credential record that matches
// neither API generation.
type InvalidCredentialFormatError struct {
	Reason string
}

func (e *InvalidCredentialFormatError) Error() string {
	return "invalid credential format: " + e.Reason
}

// Credentials is a sealed union of LegacyCredentials and ModernCredentials.
// Callers switch on the concrete type.
type Credentials interface {
	Generation() Generation
	// Key identifies the credential set without exposing secrets.
	Key() string
	Validate() error
	credentials()
}

// LegacyCredentials authenticate against the R-Series API with HTTP Basic auth.
type LegacyCredentials struct {
	APIKey    string  `json:"api_key"`
	APISecret string  `json:"api_secret"`
	Cluster   Cluster `json:"cluster"`
}

// Generation implements Credentials.
func (LegacyCredentials) Generation() Generation { return GenerationRSeries }

// Key implements Credentials.
func (c LegacyCredentials) Key() string {
	return fingerprint(string(GenerationRSeries), string(c.Cluster), c.APIKey)
}

// Validate implements Credentials.
func (c LegacyCredentials) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return &InvalidCredentialFormatError{Reason: "r_series requires api_key and api_secret"}
	}
	if _, ok := ParseCluster(string(c.Cluster)); !ok {
		return &InvalidCredentialFormatError{
			Reason: fmt.Sprintf("r_series cluster must be us or eu (got %q)", c.Cluster),
		}
	}
	return nil
}

func (LegacyCredentials) credentials() {}

// ModernCredentials authenticate against the X-Series API with an OAuth2
// bearer token.
type ModernCredentials struct {
	StoreDomain  string    `json:"store_domain"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	AccountID    string    `json:"account_id,omitempty"`
}

// Generation implements Credentials.
func (ModernCredentials) Generation() Generation { return GenerationXSeries }

// Key implements Credentials. Tokens are excluded so that a refreshed
// credential set keeps the same key.
func (c ModernCredentials) Key() string {
	return fingerprint(string(GenerationXSeries), strings.ToLower(c.StoreDomain))
}

// Validate implements Credentials.
func (c ModernCredentials) Validate() error {
	if c.StoreDomain == "" || c.AccessToken == "" {
		return &InvalidCredentialFormatError{Reason: "x_series requires store_domain and access_token"}
	}
	return nil
}

// Expired reports whether the token expires before now+buffer. A zero
// ExpiresAt means the vendor did not report an expiry.
func (c ModernCredentials) Expired(now time.Time, buffer time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt.Add(-buffer))
}

// WithToken returns a copy carrying the tokens of a refresh result.
func (c ModernCredentials) WithToken(t *TokenResult) ModernCredentials {
	c.AccessToken = t.AccessToken
	if t.RefreshToken != "" {
		c.RefreshToken = t.RefreshToken
	}
	c.ExpiresAt = t.ExpiresAt
	if t.AccountID != "" && c.AccountID == "" {
		c.AccountID = t.AccountID
	}
	return c
}

func (ModernCredentials) credentials() {}

// RawCredentials is the loose credential record accepted at the API edge,
// where either generation's fields may be present.
type RawCredentials struct {
	APIKey       string    `json:"api_key,omitempty"`
	APISecret    string    `json:"api_secret,omitempty"`
	Cluster      string    `json:"cluster,omitempty"`
	StoreDomain  string    `json:"store_domain,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	AccountID    string    `json:"account_id,omitempty"`
}

// ParseCredentials resolves a raw record into exactly one credential variant.
// A record carrying both a store domain and an access token is X-Series; one
// carrying neither is R-Series; anything else is rejected.
func ParseCredentials(raw RawCredentials) (Credentials, error) {
	var creds Credentials

	switch {
	case raw.StoreDomain != "" && raw.AccessToken != "":
		creds = ModernCredentials{
			StoreDomain:  strings.TrimSpace(raw.StoreDomain),
			AccessToken:  raw.AccessToken,
			RefreshToken: raw.RefreshToken,
			ExpiresAt:    raw.ExpiresAt,
			AccountID:    raw.AccountID,
		}
	case raw.StoreDomain == "" && raw.AccessToken == "":
		cluster, ok := ParseCluster(raw.Cluster)
		if !ok {
			return nil, &InvalidCredentialFormatError{
				Reason: fmt.Sprintf("r_series cluster must be us or eu (got %q)", raw.Cluster),
			}
		}
		creds = LegacyCredentials{
			APIKey:    strings.TrimSpace(raw.APIKey),
			APISecret: raw.APISecret,
			Cluster:   cluster,
		}
	default:
		return nil, &InvalidCredentialFormatError{
			Reason: "x_series requires both store_domain and access_token",
		}
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

func fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:12])
}
