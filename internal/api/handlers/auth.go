package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// LoginService is the part of the engine the OAuth routes use.
type LoginService interface {
	BeginLogin(ctx context.Context, storeDomain string) (*domain.OAuthSession, error)
	CompleteLogin(ctx context.Context, code, state string) (domain.ModernCredentials, error)
	AbortLogin(ctx context.Context, state string) error
}

// AuthHandler runs the X-Series authorization-code login.
type AuthHandler struct {
	svc LoginService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc LoginService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// LoginInput is the input for starting a login.
type LoginInput struct {
	Domain string `query:"domain" required:"true" doc:"X-Series store domain prefix" example:"mystore"`
}

// LoginOutput carries the URL the user must visit to authorize the app.
type LoginOutput struct {
	Body struct {
		AuthorizeURL string `json:"authorize_url"`
		State        string `json:"state"`
		StoreDomain  string `json:"store_domain"`
	}
}

// CallbackInput is the query the vendor redirects back with.
type CallbackInput struct {
	Code             string `query:"code"              doc:"Authorization code"`
	State            string `query:"state"             doc:"State issued by the login endpoint"`
	Error            string `query:"error"             doc:"Error code when the user denied access"`
	ErrorDescription string `query:"error_description" doc:"Error details when the user denied access"`
}

// CallbackOutput summarizes the stored X-Series credentials.
type CallbackOutput struct {
	Body struct {
		Status      string     `json:"status"                 example:"authorized"`
		StoreDomain string     `json:"store_domain"           example:"mystore"`
		AccountID   string     `json:"account_id,omitempty"`
		ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	}
}

// Login starts an authorization for the given store domain.
func (h *AuthHandler) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	session, err := h.svc.BeginLogin(ctx, input.Domain)
	if err != nil {
		return nil, apiError(err)
	}

	resp := &LoginOutput{}
	resp.Body.AuthorizeURL = session.AuthorizeURL
	resp.Body.State = session.State
	resp.Body.StoreDomain = session.StoreDomain
	return resp, nil
}

// Callback completes the authorization and stores the credentials.
func (h *AuthHandler) Callback(ctx context.Context, input *CallbackInput) (*CallbackOutput, error) {
	if input.Error != "" {
		if input.State != "" {
			if err := h.svc.AbortLogin(ctx, input.State); err != nil {
				return nil, apiError(err)
			}
		}
		msg := "authorization denied: " + input.Error
		if input.ErrorDescription != "" {
			msg += ": " + input.ErrorDescription
		}
		return nil, huma.Error400BadRequest(msg)
	}
	if input.Code == "" || input.State == "" {
		return nil, huma.Error400BadRequest("code and state are required")
	}

	creds, err := h.svc.CompleteLogin(ctx, input.Code, input.State)
	if err != nil {
		return nil, apiError(err)
	}

	resp := &CallbackOutput{}
	resp.Body.Status = "authorized"
	resp.Body.StoreDomain = creds.StoreDomain
	resp.Body.AccountID = creds.AccountID
	if !creds.ExpiresAt.IsZero() {
		exp := creds.ExpiresAt
		resp.Body.ExpiresAt = &exp
	}
	return resp, nil
}

// RegisterAuthRoutes registers OAuth login endpoints with the Huma API.
func RegisterAuthRoutes(api huma.API, h *AuthHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "auth-login",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/login",
		Summary:     "Start X-Series login",
		Description: "Creates a PKCE login session and returns the vendor authorize URL.",
		Tags:        []string{"auth"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusNotImplemented},
	}, h.Login)

	huma.Register(api, huma.Operation{
		OperationID: "auth-callback",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/callback",
		Summary:     "Complete X-Series login",
		Description: "Exchanges the authorization code for tokens and stores the resulting credentials.",
		Tags:        []string{"auth"},
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway, http.StatusNotImplemented},
	}, h.Callback)
}
