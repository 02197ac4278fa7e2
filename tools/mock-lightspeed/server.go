package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/lightspeed"
)

type serverConfig struct {
	Catalog     []catalogProduct
	APIKey      string
	APISecret   string
	StaticToken string
	TokenTTL    time.Duration
}

// pendingCode is an issued authorization code awaiting exchange.
type pendingCode struct {
	challenge   string
	redirectURI string
}

type server struct {
	cfg    serverConfig
	logger *slog.Logger

	mu        sync.Mutex
	codes     map[string]pendingCode
	access    map[string]time.Time
	refresh   map[string]bool
	nowFunc   func() time.Time
	accountID string
}

func newServer(cfg serverConfig, logger *slog.Logger) *server {
	return &server{
		cfg:       cfg,
		logger:    logger,
		codes:     make(map[string]pendingCode),
		access:    make(map[string]time.Time),
		refresh:   make(map[string]bool),
		nowFunc:   time.Now,
		accountID: "4242",
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /r/{cluster}/products.json", s.legacyHandler("products", s.legacyProducts))
	mux.HandleFunc("GET /r/{cluster}/variants.json", s.legacyHandler("variants", s.legacyVariants))
	mux.HandleFunc("GET /x/{domain}/2.0/products", s.modernProductsHandler)
	mux.HandleFunc("GET /oauth/authorize", s.authorizeHandler)
	mux.HandleFunc("POST /oauth/token", s.tokenHandler)
	mux.HandleFunc("GET /account", s.accountHandler)
	return mux
}

// --- R-Series ---

func (s *server) legacyHandler(key string, records func() []any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.cfg.APIKey || pass != s.cfg.APISecret {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"code": 401, "message": "Unauthorized"},
			})
			return
		}

		limit := queryInt(r, "limit", 50, 1)
		page := queryInt(r, "page", 1, 1)

		all := records()
		start := min((page-1)*limit, len(all))
		end := min(start+limit, len(all))

		writeJSON(w, http.StatusOK, map[string]any{key: all[start:end]})
		s.logger.Info("r_series page", "resource", key, "cluster", r.PathValue("cluster"),
			"page", page, "limit", limit, "returned", end-start)
	}
}

func (s *server) legacyProducts() []any {
	out := make([]any, 0, len(s.cfg.Catalog))
	for i := range s.cfg.Catalog {
		p := &s.cfg.Catalog[i]
		brand := any(false)
		if p.Brand != "" {
			brand = map[string]any{"resource": map[string]any{"id": p.BrandID}}
		}
		out = append(out, map[string]any{
			"id":        p.ID,
			"title":     p.Name,
			"fulltitle": p.Name,
			"brand":     brand,
			"image":     false,
			"updatedAt": p.Updated.Format(time.RFC3339),
		})
	}
	return out
}

func (s *server) legacyVariants() []any {
	var out []any
	for i := range s.cfg.Catalog {
		p := &s.cfg.Catalog[i]
		for _, v := range p.Variants {
			options := []any{}
			title := "Default"
			if v.Size != "" {
				title = v.Size
				options = append(options, map[string]any{
					"id":    1,
					"name":  "Size",
					"value": map[string]any{"id": v.ID, "name": v.Size},
				})
			}
			out = append(out, map[string]any{
				"id":         v.ID,
				"title":      title,
				"sku":        v.SKU,
				"ean":        v.EAN,
				"priceIncl":  v.Price,
				"stockLevel": v.Stock,
				"stockAlert": v.StockAlert,
				"updatedAt":  p.Updated.Format(time.RFC3339),
				"image":      false,
				"product":    map[string]any{"resource": map[string]any{"id": p.ID}},
				"options":    options,
			})
		}
	}
	return out
}

// --- X-Series ---

func (s *server) modernProductsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.validBearer(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}

	limit := queryInt(r, "limit", 50, 1)
	offset := queryInt(r, "offset", 0, 0)
	// The real API matches option values loosely; so does the mock.
	sizeFilter := strings.ToLower(r.URL.Query().Get("filter[variant_options][Size]"))

	var matched []any
	for i := range s.cfg.Catalog {
		p := &s.cfg.Catalog[i]
		for _, v := range p.Variants {
			if sizeFilter != "" && !strings.Contains(strings.ToLower(v.Size), sizeFilter) {
				continue
			}
			matched = append(matched, modernRecord(p, v))
		}
	}

	start := min(offset, len(matched))
	end := min(start+limit, len(matched))
	page := matched[start:end]
	if page == nil {
		page = []any{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": page})
	s.logger.Info("x_series page", "domain", r.PathValue("domain"),
		"offset", offset, "limit", limit, "size", sizeFilter, "returned", len(page))
}

func modernRecord(p *catalogProduct, v catalogVariant) map[string]any {
	rec := map[string]any{
		"id":                  "var-" + strconv.Itoa(v.ID),
		"name":                p.Name,
		"variant_name":        p.Name,
		"has_variants":        v.Size != "",
		"variant_parent_id":   "prod-" + strconv.Itoa(p.ID),
		"variant_options":     []any{},
		"product_codes":       []any{map[string]string{"type": "sku", "code": v.SKU}, map[string]string{"type": "ean", "code": v.EAN}},
		"pricing":             map[string]any{"default_price": v.Price, "currency": "USD"},
		"inventory":           map[string]any{"total_quantity": v.Stock, "reorder_point": v.StockAlert},
		"image_thumbnail_url": "",
		"updated_at":          p.Updated.Format(time.RFC3339),
	}
	if v.Size != "" {
		rec["variant_name"] = p.Name + " / " + v.Size
		rec["variant_options"] = []any{map[string]string{"id": "opt-size", "name": "Size", "value": v.Size}}
	}
	if p.Brand != "" {
		rec["brand"] = map[string]string{"name": p.Brand}
	}
	return rec
}

func (s *server) validBearer(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return false
	}
	if token == s.cfg.StaticToken {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.access[token]
	return ok && s.nowFunc().Before(exp)
}

// --- OAuth ---

func (s *server) authorizeHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirectURI := q.Get("redirect_uri")
	state := q.Get("state")
	challenge := q.Get("code_challenge")

	if q.Get("response_type") != "code" || redirectURI == "" || state == "" {
		http.Error(w, "response_type=code, redirect_uri and state are required", http.StatusBadRequest)
		return
	}
	if challenge == "" || q.Get("code_challenge_method") != "S256" {
		http.Error(w, "PKCE with code_challenge_method=S256 is required", http.StatusBadRequest)
		return
	}

	target, err := url.Parse(redirectURI)
	if err != nil {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}

	code := uuid.NewString()
	s.mu.Lock()
	s.codes[code] = pendingCode{challenge: challenge, redirectURI: redirectURI}
	s.mu.Unlock()

	// Consent is granted immediately.
	tq := target.Query()
	tq.Set("code", code)
	tq.Set("state", state)
	target.RawQuery = tq.Encode()

	s.logger.Info("authorization granted", "client_id", q.Get("client_id"))
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func (s *server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		oauthError(w, "invalid_request", "malformed form body")
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		s.exchangeCode(w, r)
	case "refresh_token":
		s.exchangeRefresh(w, r)
	default:
		oauthError(w, "unsupported_grant_type", "grant_type must be authorization_code or refresh_token")
	}
}

func (s *server) exchangeCode(w http.ResponseWriter, r *http.Request) {
	code := r.PostForm.Get("code")
	verifier := r.PostForm.Get("code_verifier")

	s.mu.Lock()
	pending, ok := s.codes[code]
	delete(s.codes, code)
	s.mu.Unlock()

	if !ok {
		oauthError(w, "invalid_grant", "unknown or already used authorization code")
		return
	}
	if !lightspeed.VerifyChallenge(verifier, pending.challenge) {
		s.logger.Warn("pkce verification failed")
		oauthError(w, "invalid_grant", "code_verifier does not match code_challenge")
		return
	}
	if uri := r.PostForm.Get("redirect_uri"); uri != "" && uri != pending.redirectURI {
		oauthError(w, "invalid_grant", "redirect_uri does not match")
		return
	}

	s.issueTokens(w)
}

func (s *server) exchangeRefresh(w http.ResponseWriter, r *http.Request) {
	rt := r.PostForm.Get("refresh_token")

	s.mu.Lock()
	ok := s.refresh[rt]
	delete(s.refresh, rt)
	s.mu.Unlock()

	if !ok {
		oauthError(w, "invalid_grant", "unknown refresh token")
		return
	}
	s.issueTokens(w)
}

func (s *server) issueTokens(w http.ResponseWriter) {
	access := "at-" + uuid.NewString()
	refresh := "rt-" + uuid.NewString()

	s.mu.Lock()
	s.access[access] = s.nowFunc().Add(s.cfg.TokenTTL)
	s.refresh[refresh] = true
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
		"expires_in":    int(s.cfg.TokenTTL.Seconds()),
	})
	s.logger.Info("issued tokens", "expires_in", s.cfg.TokenTTL)
}

func (s *server) accountHandler(w http.ResponseWriter, r *http.Request) {
	if !s.validBearer(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"Account": map[string]any{"accountID": s.accountID, "name": "Mock Store"},
	})
}

// --- helpers ---

func oauthError(w http.ResponseWriter, code, desc string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error":             code,
		"error_description": desc,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def, minVal int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < minVal {
		return def
	}
	return v
}
