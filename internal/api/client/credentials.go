package client

import (
	"context"
	"net/url"
	"time"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

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

// TestResult is the result of a successful connection test.
type TestResult struct {
	Status     string            `json:"status"`
	Generation domain.Generation `json:"generation"`
}

// LoginResponse carries the URL to open in a browser.
type LoginResponse struct {
	AuthorizeURL string `json:"authorize_url"`
	State        string `json:"state"`
	StoreDomain  string `json:"store_domain"`
}

// CredentialStatus returns the status of the stored credentials.
func (c *Client) CredentialStatus(ctx context.Context) (*CredentialStatus, error) {
	var st CredentialStatus
	if err := c.get(ctx, "/api/v1/credentials", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveCredentials stores raw credentials after server-side validation.
func (c *Client) SaveCredentials(ctx context.Context, raw domain.RawCredentials) (*CredentialStatus, error) {
	var st CredentialStatus
	if err := c.put(ctx, "/api/v1/credentials", raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ClearCredentials removes the stored credentials.
func (c *Client) ClearCredentials(ctx context.Context) error {
	return c.del(ctx, "/api/v1/credentials", nil)
}

// TestCredentials runs a connection test with the stored credentials.
func (c *Client) TestCredentials(ctx context.Context) (*TestResult, error) {
	var res TestResult
	if err := c.post(ctx, "/api/v1/credentials/test", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Login starts an X-Series login for storeDomain.
func (c *Client) Login(ctx context.Context, storeDomain string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.get(ctx, "/api/v1/auth/login?domain="+url.QueryEscape(storeDomain), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
