package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/lightspeed"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, products int) (*server, *httptest.Server) {
	t.Helper()
	srv := newServer(serverConfig{
		Catalog:     buildCatalog(products),
		APIKey:      "key",
		APISecret:   "secret",
		StaticToken: "static",
		TokenTTL:    time.Hour,
	}, testLogger())
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func countVariants(catalog []catalogProduct) int {
	n := 0
	for _, p := range catalog {
		n += len(p.Variants)
	}
	return n
}

func TestBuildCatalog(t *testing.T) {
	catalog := buildCatalog(14)
	if len(catalog) != 14 {
		t.Fatalf("products=%d, want 14", len(catalog))
	}
	if got := countVariants(catalog); got != 12*4+2 {
		t.Errorf("variants=%d, want %d", got, 12*4+2)
	}
	if catalog[6].Variants[0].Size != "" {
		t.Errorf("product 7 size=%q, want no size", catalog[6].Variants[0].Size)
	}
	if catalog[10].Name != "Trail Tee 2" {
		t.Errorf("name=%q, want Trail Tee 2", catalog[10].Name)
	}

	again := buildCatalog(14)
	if again[3].Variants[2].SKU != catalog[3].Variants[2].SKU {
		t.Error("catalog is not deterministic")
	}
}

func TestLegacyProducts_RequiresBasicAuth(t *testing.T) {
	_, ts := newTestServer(t, 3)

	tests := []struct {
		name       string
		user, pass string
		wantStatus int
	}{
		{name: "no auth", wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", user: "key", pass: "nope", wantStatus: http.StatusUnauthorized},
		{name: "valid", user: "key", pass: "secret", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+"/r/us/products.json", http.NoBody)
			if err != nil {
				t.Fatal(err)
			}
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status=%d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestLegacyVariants_Pagination(t *testing.T) {
	srv, _ := newTestServer(t, 3)
	handler := srv.routes()

	fetch := func(page string) []map[string]any {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/r/eu/variants.json?limit=5&page="+page, http.NoBody)
		req.SetBasicAuth("key", "secret")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
		}
		var resp struct {
			Variants []map[string]any `json:"variants"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		return resp.Variants
	}

	first := fetch("1")
	second := fetch("2")
	third := fetch("3")

	if len(first) != 5 || len(second) != 5 || len(third) != 2 {
		t.Fatalf("page sizes=%d,%d,%d, want 5,5,2", len(first), len(second), len(third))
	}
	options, ok := first[0]["options"].([]any)
	if !ok || len(options) != 1 {
		t.Fatalf("options=%v, want one size option", first[0]["options"])
	}
	if first[0]["stockAlert"] != float64(3) {
		t.Errorf("stockAlert=%v, want 3", first[0]["stockAlert"])
	}
}

func TestModernProducts_Auth(t *testing.T) {
	srv, _ := newTestServer(t, 3)
	handler := srv.routes()

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer other", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic static", wantStatus: http.StatusUnauthorized},
		{name: "static token", header: "Bearer static", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x/shop/2.0/products", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status=%d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestModernProducts_SizeFilterIsLoose(t *testing.T) {
	srv, _ := newTestServer(t, 6)
	handler := srv.routes()

	q := url.Values{"filter[variant_options][Size]": {"l"}, "limit": {"100"}}
	req := httptest.NewRequest(http.MethodGet, "/x/shop/2.0/products?"+q.Encode(), http.NoBody)
	req.Header.Set("Authorization", "Bearer static")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Data []struct {
			VariantOptions []struct {
				Value string `json:"value"`
			} `json:"variant_options"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	// L and XL for each of the six products.
	if len(resp.Data) != 12 {
		t.Fatalf("records=%d, want 12", len(resp.Data))
	}
	seen := map[string]int{}
	for _, rec := range resp.Data {
		seen[rec.VariantOptions[0].Value]++
	}
	if seen["L"] != 6 || seen["XL"] != 6 {
		t.Errorf("sizes=%v, want 6 L and 6 XL", seen)
	}
}

func TestTokenHandler_RejectsWrongVerifier(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	handler := srv.routes()

	verifier, err := lightspeed.NewCodeVerifier()
	if err != nil {
		t.Fatal(err)
	}
	code := authorize(t, handler, lightspeed.CodeChallenge(verifier))

	exchange := func(v string) *httptest.ResponseRecorder {
		form := url.Values{"grant_type": {"authorization_code"}, "code": {code}, "code_verifier": {v}}
		req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	w := exchange("wrong-verifier")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want %d", w.Code, http.StatusBadRequest)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["error"] != "invalid_grant" {
		t.Errorf("error=%s, want invalid_grant", resp["error"])
	}

	// The code is single use even after a failed exchange.
	if w := exchange(verifier); w.Code != http.StatusBadRequest {
		t.Errorf("reuse status=%d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthorizeHandler_RequiresPKCE(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	q := url.Values{"response_type": {"code"}, "redirect_uri": {"http://localhost/cb"}, "state": {"s"}}
	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+q.Encode(), http.NoBody)
	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status=%d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestOAuthFlowAndModernFetch(t *testing.T) {
	_, ts := newTestServer(t, 10)
	ctx := context.Background()

	oauth := lightspeed.NewOAuthClient("app", "secret", "http://localhost/cb",
		lightspeed.WithAuthorizeURL(ts.URL+"/oauth/authorize"),
		lightspeed.WithTokenURL(ts.URL+"/oauth/token"),
		lightspeed.WithAccountURL(ts.URL+"/account"),
		lightspeed.WithOAuthLogger(testLogger()),
	)

	session, err := oauth.BeginAuthorization("shop")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	noRedirect := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := noRedirect.Get(session.AuthorizeURL)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("authorize status=%d, want %d", resp.StatusCode, http.StatusFound)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatal(err)
	}

	tok, err := oauth.CompleteAuthorization(ctx, session, loc.Query().Get("code"), loc.Query().Get("state"))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		t.Fatalf("tokens missing: %+v", tok)
	}
	if tok.AccountID != "4242" {
		t.Errorf("account=%q, want 4242", tok.AccountID)
	}

	refreshed, err := oauth.Refresh(ctx, tok.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == tok.AccessToken {
		t.Error("refresh did not rotate the access token")
	}
	if _, err := oauth.Refresh(ctx, tok.RefreshToken); err == nil {
		t.Error("reused refresh token was accepted")
	}

	gw := lightspeed.NewGateway(
		lightspeed.WithXSeriesBaseURL(ts.URL+"/x/{domain}"),
		lightspeed.WithTokenSources(lightspeed.NewTokenSources(oauth)),
		lightspeed.WithPageSizes(50, 8),
		lightspeed.WithPageDelay(0),
		lightspeed.WithGatewayLogger(testLogger()),
	)
	page, err := gw.FetchModernProducts(ctx, domain.ModernCredentials{
		StoreDomain:  "shop",
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		ExpiresAt:    refreshed.ExpiresAt,
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Records) != 9*4+1 {
		t.Errorf("records=%d, want %d", len(page.Records), 9*4+1)
	}
	if page.Truncated {
		t.Error("unexpected truncation")
	}
}

func authorize(t *testing.T, handler http.Handler, challenge string) string {
	t.Helper()
	q := url.Values{
		"response_type":         {"code"},
		"redirect_uri":          {"http://localhost/cb"},
		"state":                 {"state-1"},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
	}
	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize?"+q.Encode(), http.NoBody)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Fatalf("authorize status=%d, want %d", w.Code, http.StatusFound)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatal(err)
	}
	if loc.Query().Get("state") != "state-1" {
		t.Fatalf("state=%q, want state-1", loc.Query().Get("state"))
	}
	return loc.Query().Get("code")
}
