package lightspeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// Vendor OAuth endpoints.
const (
	DefaultAuthorizeURL = "https://cloud.lightspeedapp.com/auth/oauth/authorize"
	DefaultTokenURL     = "https://cloud.lightspeedapp.com/auth/oauth/token" //nolint:gosec // not a credential
	DefaultAccountURL   = "https://api.lightspeedapp.com/API/V3/Account.json"
	DefaultScopes       = "employee:register employee:inventory"
)

const (
	grantAuthorizationCode = "authorization_code"
	grantRefreshToken      = "refresh_token"
)

// OAuthClient performs the X-Series authorization-code flow with PKCE and
// token refresh. It holds no per-session state; sessions are returned to the
// caller and handed back on completion.
type OAuthClient struct {
	clientID     string
	clientSecret string
	redirectURL  string
	authorizeURL string
	tokenURL     string
	accountURL   string
	scopes       string
	client       Doer
	logger       *slog.Logger
	nowFunc      func() time.Time // for testing
}

// OAuthOption configures the OAuthClient.
type OAuthOption func(*OAuthClient)

// WithAuthorizeURL overrides the vendor consent endpoint.
func WithAuthorizeURL(u string) OAuthOption {
	return func(c *OAuthClient) {
		c.authorizeURL = u
	}
}

// WithTokenURL overrides the vendor token endpoint.
func WithTokenURL(u string) OAuthOption {
	return func(c *OAuthClient) {
		c.tokenURL = u
	}
}

// WithAccountURL sets the endpoint used to look up the account id after a
// code exchange. An empty URL disables the lookup.
func WithAccountURL(u string) OAuthOption {
	return func(c *OAuthClient) {
		c.accountURL = u
	}
}

// WithScopes overrides the requested scopes.
func WithScopes(s string) OAuthOption {
	return func(c *OAuthClient) {
		c.scopes = s
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(d Doer) OAuthOption {
	return func(c *OAuthClient) {
		c.client = d
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) OAuthOption {
	return func(c *OAuthClient) {
		c.nowFunc = f
	}
}

// WithOAuthLogger sets the logger.
func WithOAuthLogger(l *slog.Logger) OAuthOption {
	return func(c *OAuthClient) {
		c.logger = l
	}
}

// NewOAuthClient creates an OAuth client for the given application
// registration.
func NewOAuthClient(
	clientID, clientSecret, redirectURL string,
	opts ...OAuthOption,
) *OAuthClient {
	c := &OAuthClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		authorizeURL: DefaultAuthorizeURL,
		tokenURL:     DefaultTokenURL,
		accountURL:   DefaultAccountURL,
		scopes:       DefaultScopes,
		client:       defaultHTTPClient(),
		logger:       slog.Default(),
		nowFunc:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BeginAuthorization generates a fresh state and PKCE pair and builds the
// consent URL. It has no side effects; the caller stores the session.
func (c *OAuthClient) BeginAuthorization(storeDomain string) (*domain.OAuthSession, error) {
	state, err := NewState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}
	verifier, err := NewCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("generating code verifier: %w", err)
	}
	challenge := CodeChallenge(verifier)

	u, err := url.Parse(c.authorizeURL)
	if err != nil {
		return nil, fmt.Errorf("parsing authorize URL: %w", err)
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	if c.redirectURL != "" {
		q.Set("redirect_uri", c.redirectURL)
	}
	if c.scopes != "" {
		q.Set("scope", c.scopes)
	}
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	u.RawQuery = q.Encode()

	return &domain.OAuthSession{
		State:         state,
		CodeVerifier:  verifier,
		CodeChallenge: challenge,
		AuthorizeURL:  u.String(),
		StoreDomain:   strings.TrimSpace(storeDomain),
		CreatedAt:     c.nowFunc(),
	}, nil
}

// CompleteAuthorization validates the callback state against the session
// and exchanges the code for tokens. A state mismatch returns
// StateMismatchError without contacting the vendor.
func (c *OAuthClient) CompleteAuthorization(
	ctx context.Context,
	session *domain.OAuthSession,
	code, state string,
) (*domain.TokenResult, error) {
	if session == nil || !statesEqual(session.State, state) {
		return nil, &StateMismatchError{}
	}

	form := url.Values{
		"grant_type":    {grantAuthorizationCode},
		"code":          {code},
		"code_verifier": {session.CodeVerifier},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	if c.redirectURL != "" {
		form.Set("redirect_uri", c.redirectURL)
	}

	tok, err := c.exchange(ctx, grantAuthorizationCode, form)
	if err != nil {
		return nil, err
	}

	if tok.AccountID == "" && c.accountURL != "" {
		id, err := c.lookupAccount(ctx, tok.AccessToken)
		if err != nil {
			c.logger.Warn("account lookup failed", "err", err)
		} else {
			tok.AccountID = id
		}
	}

	return tok, nil
}

// Refresh exchanges a refresh token for a new access token. A rejected
// refresh token is not retried.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*domain.TokenResult, error) {
	if refreshToken == "" {
		return nil, &TokenExchangeError{Grant: grantRefreshToken, Body: "no refresh token available"}
	}

	form := url.Values{
		"grant_type":    {grantRefreshToken},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	return c.exchange(ctx, grantRefreshToken, form)
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        Number `json:"expires_in"`
	AccountID        FlexID `json:"account_id"`
	DomainPrefix     string `json:"domain_prefix"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *OAuthClient) exchange(
	ctx context.Context,
	grant string,
	form url.Values,
) (_ *domain.TokenResult, err error) {
	ctx, span := tracer.Start(ctx, "lightspeed.token_exchange")
	span.SetAttributes(attribute.String("oauth.grant", grant))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TokenExchangeError{Grant: grant, Status: resp.StatusCode, Body: truncateBody(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &TokenExchangeError{
			Grant:  grant,
			Status: resp.StatusCode,
			Body:   "parsing token response: " + err.Error(),
		}
	}
	if tr.Error != "" || tr.AccessToken == "" {
		return nil, &TokenExchangeError{Grant: grant, Status: resp.StatusCode, Body: truncateBody(body)}
	}

	result := &domain.TokenResult{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		AccountID:    string(tr.AccountID),
	}
	if result.AccountID == "" {
		result.AccountID = tr.DomainPrefix
	}
	if secs := tr.ExpiresIn.Int(); secs > 0 {
		result.ExpiresAt = c.nowFunc().Add(time.Duration(secs) * time.Second)
	}
	return result, nil
}

// lookupAccount reads Account[0].accountID from the account endpoint. The
// endpoint returns either an array or a single object.
func (c *OAuthClient) lookupAccount(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.accountURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating account request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing account request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading account response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &VendorRequestError{Op: "account lookup", Status: resp.StatusCode, Body: truncateBody(body)}
	}

	var envelope struct {
		Account json.RawMessage `json:"Account"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("parsing account response: %w", err)
	}

	type account struct {
		AccountID FlexID `json:"accountID"`
	}
	var list []account
	if err := json.Unmarshal(envelope.Account, &list); err != nil {
		var one account
		if err := json.Unmarshal(envelope.Account, &one); err != nil {
			return "", fmt.Errorf("parsing account record: %w", err)
		}
		list = []account{one}
	}
	if len(list) == 0 || list[0].AccountID == "" {
		return "", errors.New("account response has no accountID")
	}
	return string(list[0].AccountID), nil
}
